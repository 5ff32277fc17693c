// Package completion provides cached, prefix-filterable value suppliers used
// to suggest argument values for capability parameters.
package completion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc computes the full candidate list of a provider.
type FetchFunc func(ctx context.Context) ([]string, error)

// Source is anything that can suggest completions for a prefix.
type Source interface {
	Completions(ctx context.Context, prefix string) ([]string, error)
	ClearCache()
}

// Provider caches the result of its FetchFunc for the life of the instance
// (or until ClearCache) and filters it by prefix.
type Provider struct {
	fetch FetchFunc

	mu     sync.RWMutex
	cached []string
	loaded bool
	// generation is bumped by ClearCache; a fetch stores its result only
	// when no clear happened while it ran.
	generation uint64

	// collapses concurrent first fetches into one call
	group singleflight.Group
}

// New creates a provider backed by fetch.
func New(fetch FetchFunc) *Provider {
	return &Provider{fetch: fetch}
}

// Static creates a provider over a fixed list of values.
func Static(values ...string) *Provider {
	list := make([]string, len(values))
	copy(list, values)
	return New(func(context.Context) ([]string, error) {
		return list, nil
	})
}

// Completions returns the cached candidates matching prefix. An empty prefix
// returns every candidate; otherwise matching is a case-insensitive prefix
// test and the original order is kept.
func (p *Provider) Completions(ctx context.Context, prefix string) ([]string, error) {
	all, err := p.values(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, prefix), nil
}

// ClearCache drops the memoized list. The next call to Completions fetches
// again.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	p.cached = nil
	p.loaded = false
	p.generation++
	p.mu.Unlock()

	// callers arriving after the clear must not join a fetch started before it
	p.group.Forget("fetch")
}

func (p *Provider) values(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	if p.loaded {
		cached := p.cached
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	if p.fetch == nil {
		return nil, fmt.Errorf("completion provider has no fetch function")
	}

	v, err, _ := p.group.Do("fetch", func() (interface{}, error) {
		p.mu.RLock()
		if p.loaded {
			cached := p.cached
			p.mu.RUnlock()
			return cached, nil
		}
		generation := p.generation
		p.mu.RUnlock()

		values, err := p.fetch(ctx)
		if err != nil {
			return nil, err
		}

		list := make([]string, len(values))
		copy(list, values)

		p.mu.Lock()
		if p.generation == generation {
			p.cached = list
			p.loaded = true
		}
		p.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completions: %w", err)
	}
	return v.([]string), nil
}

// Filter returns the values starting with prefix, ignoring case, in their
// original order. The result never aliases values.
func Filter(values []string, prefix string) []string {
	out := make([]string, 0, len(values))
	if prefix == "" {
		return append(out, values...)
	}
	lower := strings.ToLower(prefix)
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), lower) {
			out = append(out, v)
		}
	}
	return out
}

// Catalog maps provider references to sources. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	providers map[string]Source
}

// NewCatalog creates an empty provider catalog.
func NewCatalog() *Catalog {
	return &Catalog{providers: make(map[string]Source)}
}

// Register adds a provider under ref.
func (c *Catalog) Register(ref string, source Source) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("completion provider reference must not be empty")
	}
	if source == nil {
		return fmt.Errorf("completion provider %q is nil", ref)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.providers[ref]; exists {
		return fmt.Errorf("completion provider %q already registered", ref)
	}
	c.providers[ref] = source
	return nil
}

// Resolve returns the provider registered under ref.
func (c *Catalog) Resolve(ref string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	source, ok := c.providers[ref]
	return source, ok
}

// Refs returns all registered references, sorted.
func (c *Catalog) Refs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := make([]string, 0, len(c.providers))
	for ref := range c.providers {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// ClearAll drops the cache of every registered provider.
func (c *Catalog) ClearAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, source := range c.providers {
		source.ClearCache()
	}
}
