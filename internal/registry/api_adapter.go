package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"capstan/internal/api"
	"capstan/internal/capability"
	"capstan/internal/completion"
	"capstan/pkg/logging"
)

// APIAdapter exposes a Catalog through api.CatalogHandler.
type APIAdapter struct {
	catalog     *Catalog
	completions *completion.Catalog

	mu              sync.RWMutex
	discoveryErrors func() []string
}

// NewAPIAdapter creates a new catalog API adapter.
func NewAPIAdapter(catalog *Catalog, completions *completion.Catalog) *APIAdapter {
	if completions == nil {
		completions = completion.NewCatalog()
	}
	return &APIAdapter{catalog: catalog, completions: completions}
}

// Register registers this adapter with the API layer.
func (a *APIAdapter) Register() {
	api.RegisterCatalog(a)
}

// SetDiscoveryErrors installs the source of declarative tool scan errors,
// normally the MCP server.
func (a *APIAdapter) SetDiscoveryErrors(fn func() []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discoveryErrors = fn
}

func (a *APIAdapter) scanErrors() []string {
	a.mu.RLock()
	fn := a.discoveryErrors
	a.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn()
}

// GetSummary implements api.CatalogHandler.
func (a *APIAdapter) GetSummary() api.CatalogSummary {
	s := a.catalog.Summary()
	discovery := len(a.scanErrors())
	return api.CatalogSummary{
		Tools:           toAPISummary(s.Tools),
		Prompts:         toAPISummary(s.Prompts),
		Resources:       toAPISummary(s.Resources),
		DiscoveryErrors: discovery,
		TotalErrors:     s.TotalErrors + discovery,
	}
}

// GetErrors implements api.CatalogHandler.
func (a *APIAdapter) GetErrors() map[string][]string {
	out := make(map[string][]string)
	for kind, errs := range a.catalog.Errors() {
		out[string(kind)] = errs
	}
	if errs := a.scanErrors(); len(errs) > 0 {
		out[api.DiscoveryErrorsKey] = errs
	}
	return out
}

// Complete implements api.CatalogHandler.
func (a *APIAdapter) Complete(ctx context.Context, kind, name, argument, prefix string) ([]string, error) {
	k, err := capability.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if k == capability.KindResource {
		return nil, fmt.Errorf("completions are only offered for tools and prompts")
	}

	def, ok := a.catalog.Registry(k).Definition(name)
	if !ok {
		if k == capability.KindTool {
			return nil, api.NewToolNotFoundError(name)
		}
		return nil, api.NewPromptNotFoundError(name)
	}

	ref, ok := def.CompletionProvider(argument)
	if !ok {
		return nil, fmt.Errorf("%s %q has no completion provider for argument %q", k, name, argument)
	}

	source, ok := a.completions.Resolve(ref)
	if !ok {
		return nil, api.NewCompletionProviderNotFoundError(ref)
	}

	return source.Completions(ctx, prefix)
}

// Reset implements api.CatalogHandler.
func (a *APIAdapter) Reset(reason string) {
	a.catalog.Reset()
	a.completions.ClearAll()
	logging.Info("Registry", "Catalog reset: %s", reason)
	api.PublishCatalogUpdate(api.CatalogUpdateEvent{Reason: reason, Timestamp: time.Now()})
}

func toAPISummary(s Summary) api.CapabilitySummary {
	return api.CapabilitySummary{
		Kind:            string(s.Kind),
		Total:           s.Total,
		BySource:        s.BySource,
		ByCategory:      s.ByCategory,
		Dangerous:       s.Dangerous,
		Templates:       s.Templates,
		WithCompletions: s.WithCompletions,
		Errors:          s.Errors,
	}
}
