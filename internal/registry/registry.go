// Package registry collects capability definitions of one kind from bundled
// and extension contributors and answers discovery queries about them.
//
// A Registry runs its registration pass lazily, on the first query, and
// caches the result until Reset is called. The pass is serialized so
// concurrent first queries trigger exactly one pass.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"capstan/internal/capability"
	"capstan/pkg/logging"
)

// Companion is an optional bundled tool contributor that is registered only
// when Probe reports its backing facility as installed.
type Companion struct {
	Ref   string
	Probe func() (bool, error)
}

// Config configures a Registry.
type Config struct {
	Kind     capability.Kind
	Resolver capability.Resolver

	// Core lists the bundled contributor refs, registered under CoreSource.
	Core []string

	// Companion is only consulted for the tool kind.
	Companion *Companion

	// Extensions are invoked in order after the core contributors.
	Extensions []ExtensionPoint

	Metrics *Metrics
}

// Summary aggregates the definitions of one registry.
type Summary struct {
	Kind            capability.Kind `json:"kind" yaml:"kind"`
	Total           int             `json:"total" yaml:"total"`
	BySource        map[string]int  `json:"bySource" yaml:"bySource"`
	ByCategory      map[string]int  `json:"byCategory" yaml:"byCategory"`
	Dangerous       int             `json:"dangerous" yaml:"dangerous"`
	Templates       int             `json:"templates" yaml:"templates"`
	WithCompletions int             `json:"withCompletions" yaml:"withCompletions"`
	Errors          int             `json:"errors" yaml:"errors"`
}

// state is the frozen result of one registration pass.
type state struct {
	contributions map[string][]string
	sources       []string
	definitions   map[string]*capability.Definition
	order         []string
	errors        []string
	discovery     map[string][]DiscoveryPath
}

// Registry owns the definitions of one capability kind.
type Registry struct {
	config Config

	mu    sync.RWMutex
	state *state
}

// New creates a registry. No contributor is consulted until the first query.
func New(cfg Config) *Registry {
	if cfg.Resolver == nil {
		cfg.Resolver = capability.NewTypes()
	}
	return &Registry{config: cfg}
}

// Kind returns the capability kind this registry owns.
func (r *Registry) Kind() capability.Kind {
	return r.config.Kind
}

// load returns the current state, running the registration pass first if
// needed.
func (r *Registry) load() *state {
	r.mu.RLock()
	s := r.state
	r.mu.RUnlock()
	if s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = r.runPass()
	}
	return r.state
}

func (r *Registry) runPass() *state {
	start := time.Now()
	kind := r.config.Kind

	event := NewEvent(kind, r.config.Resolver)

	core := append([]string(nil), r.config.Core...)
	if kind == capability.KindTool && r.config.Companion != nil && companionInstalled(r.config.Companion) {
		core = append(core, r.config.Companion.Ref)
	}
	event.addCoreBatch(core)

	for _, ext := range r.config.Extensions {
		invokeExtension(ext, event)
	}

	s := event.snapshot()
	took := time.Since(start)
	r.config.Metrics.observePass(kind, took, len(s.order), len(s.errors))

	logging.Info("Registry", "Registered %d %s from %d sources in %s (%d errors)",
		len(s.order), kind.Plural(), len(s.sources), took, len(s.errors))

	return s
}

func companionInstalled(c *Companion) (installed bool) {
	if c.Probe == nil || c.Ref == "" {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Registry", "Probe for companion %s panicked: %v", c.Ref, r)
			installed = false
		}
	}()

	ok, err := c.Probe()
	if err != nil {
		logging.Debug("Registry", "Companion %s not installed: %v", c.Ref, err)
		return false
	}
	return ok
}

func invokeExtension(ext ExtensionPoint, event *Event) {
	if ext == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			event.recordError("extension", fmt.Sprintf("extension %T panicked: %v", ext, r))
		}
	}()

	ext.Register(event)
}

// Definition returns the definition stored under key: the name for tools,
// prompts and resource templates, the URI for static resources.
func (r *Registry) Definition(key string) (*capability.Definition, bool) {
	def, ok := r.load().definitions[key]
	return def, ok
}

// AllDefinitions returns every definition keyed by name or URI.
func (r *Registry) AllDefinitions() map[string]*capability.Definition {
	s := r.load()
	out := make(map[string]*capability.Definition, len(s.definitions))
	for k, v := range s.definitions {
		out[k] = v
	}
	return out
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []*capability.Definition {
	s := r.load()
	defs := make([]*capability.Definition, 0, len(s.order))
	for _, key := range s.order {
		defs = append(defs, s.definitions[key])
	}
	return defs
}

// DefinitionsBySource groups definitions by contributing source.
func (r *Registry) DefinitionsBySource() map[string][]*capability.Definition {
	return groupBy(r.Definitions(), (*capability.Definition).Source)
}

// DefinitionsByCategory groups definitions by category.
func (r *Registry) DefinitionsByCategory() map[string][]*capability.Definition {
	return groupBy(r.Definitions(), (*capability.Definition).Category)
}

// Contributions returns the accepted contributor classes by source.
func (r *Registry) Contributions() map[string][]string {
	return copyContributions(r.load().contributions)
}

// Sources returns the contributing sources in the order they first
// contributed.
func (r *Registry) Sources() []string {
	return append([]string(nil), r.load().sources...)
}

// Errors returns the errors recorded by the last registration pass.
func (r *Registry) Errors() []string {
	return append([]string(nil), r.load().errors...)
}

// DiscoveryPaths returns the directories extensions asked to have scanned.
func (r *Registry) DiscoveryPaths() map[string][]DiscoveryPath {
	return copyDiscovery(r.load().discovery)
}

// Summary aggregates the current definitions.
func (r *Registry) Summary() Summary {
	s := r.load()

	summary := Summary{
		Kind:       r.config.Kind,
		Total:      len(s.order),
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
		Errors:     len(s.errors),
	}

	for _, key := range s.order {
		def := s.definitions[key]
		summary.BySource[def.Source()]++
		summary.ByCategory[def.Category()]++
		if def.Dangerous() {
			summary.Dangerous++
		}
		if def.Template() {
			summary.Templates++
		}
		if def.HasCompletions() {
			summary.WithCompletions++
		}
	}

	return summary
}

// Reset drops the cached pass. The next query runs a new one.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.state = nil
	r.mu.Unlock()

	r.config.Metrics.forget(r.config.Kind)
	logging.Debug("Registry", "Reset %s registry", r.config.Kind)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
