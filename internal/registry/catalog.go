package registry

import (
	"sync"

	"capstan/internal/capability"
)

// CatalogConfig configures the three registries of a Catalog.
type CatalogConfig struct {
	Resolver capability.Resolver

	// Core maps each kind to its bundled contributor refs.
	Core map[capability.Kind][]string

	// Companion is added to the tool registry when installed.
	Companion *Companion

	// Extensions are shared by all kinds.
	Extensions []ExtensionPoint

	Metrics *Metrics
}

// CatalogSummary aggregates all three registries.
type CatalogSummary struct {
	Tools       Summary `json:"tools" yaml:"tools"`
	Prompts     Summary `json:"prompts" yaml:"prompts"`
	Resources   Summary `json:"resources" yaml:"resources"`
	TotalErrors int     `json:"totalErrors" yaml:"totalErrors"`
}

// Catalog owns one registry per capability kind. It replaces process-wide
// registry singletons: every consumer receives the catalog explicitly.
type Catalog struct {
	config CatalogConfig

	mu         sync.Mutex
	registries map[capability.Kind]*Registry
}

// NewCatalog creates a catalog. Registries are created on first access.
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.Resolver == nil {
		cfg.Resolver = capability.NewTypes()
	}
	return &Catalog{
		config:     cfg,
		registries: make(map[capability.Kind]*Registry),
	}
}

// Registry returns the registry for kind, creating it on first access.
func (c *Catalog) Registry(kind capability.Kind) *Registry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.registries[kind]; ok {
		return r
	}

	cfg := Config{
		Kind:       kind,
		Resolver:   c.config.Resolver,
		Core:       c.config.Core[kind],
		Extensions: c.config.Extensions,
		Metrics:    c.config.Metrics,
	}
	if kind == capability.KindTool {
		cfg.Companion = c.config.Companion
	}

	r := New(cfg)
	c.registries[kind] = r
	return r
}

// Tools returns the tool registry.
func (c *Catalog) Tools() *Registry { return c.Registry(capability.KindTool) }

// Prompts returns the prompt registry.
func (c *Catalog) Prompts() *Registry { return c.Registry(capability.KindPrompt) }

// Resources returns the resource registry.
func (c *Catalog) Resources() *Registry { return c.Registry(capability.KindResource) }

// Resolver returns the class resolver shared by all registries.
func (c *Catalog) Resolver() capability.Resolver { return c.config.Resolver }

// Summary aggregates all registries, running their passes if needed.
func (c *Catalog) Summary() CatalogSummary {
	s := CatalogSummary{
		Tools:     c.Tools().Summary(),
		Prompts:   c.Prompts().Summary(),
		Resources: c.Resources().Summary(),
	}
	s.TotalErrors = s.Tools.Errors + s.Prompts.Errors + s.Resources.Errors
	return s
}

// Errors returns the registration errors of every kind that has any.
func (c *Catalog) Errors() map[capability.Kind][]string {
	out := make(map[capability.Kind][]string)
	for _, kind := range capability.Kinds() {
		if errs := c.Registry(kind).Errors(); len(errs) > 0 {
			out[kind] = errs
		}
	}
	return out
}

// Reset drops the cached pass of every registry created so far.
func (c *Catalog) Reset() {
	c.mu.Lock()
	registries := make([]*Registry, 0, len(c.registries))
	for _, r := range c.registries {
		registries = append(registries, r)
	}
	c.mu.Unlock()

	for _, r := range registries {
		r.Reset()
	}
}
