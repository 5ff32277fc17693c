package registry

import (
	"context"
	"testing"

	"capstan/internal/api"
	"capstan/internal/capability"
	"capstan/internal/completion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) (*APIAdapter, *completion.Catalog) {
	t.Helper()
	types := newTypes(t,
		toolClass("core/tools", capability.ToolMarker{Name: "echo"}),
		promptClass("core/prompts", "greet"),
	)
	catalog := NewCatalog(CatalogConfig{
		Resolver: types,
		Core: map[capability.Kind][]string{
			capability.KindTool:   {"core/tools"},
			capability.KindPrompt: {"core/prompts"},
		},
	})
	completions := completion.NewCatalog()
	return NewAPIAdapter(catalog, completions), completions
}

func TestAPIAdapter_Complete(t *testing.T) {
	adapter, completions := newAdapter(t)
	ctx := context.Background()

	_, err := adapter.Complete(ctx, "prompt", "greet", "tone", "f")
	assert.True(t, api.IsNotFound(err), "provider not registered yet")

	require.NoError(t, completions.Register("core/completion.Tones", completion.Static("formal", "friendly", "terse")))

	got, err := adapter.Complete(ctx, "prompt", "greet", "tone", "f")
	require.NoError(t, err)
	assert.Equal(t, []string{"formal", "friendly"}, got)

	_, err = adapter.Complete(ctx, "prompt", "missing", "tone", "")
	assert.True(t, api.IsNotFound(err))

	_, err = adapter.Complete(ctx, "tool", "echo", "text", "")
	assert.ErrorContains(t, err, "no completion provider")

	_, err = adapter.Complete(ctx, "resource", "x", "y", "")
	assert.Error(t, err)

	_, err = adapter.Complete(ctx, "widget", "x", "y", "")
	assert.Error(t, err)
}

func TestAPIAdapter_SummaryAndErrors(t *testing.T) {
	adapter, _ := newAdapter(t)

	summary := adapter.GetSummary()
	assert.Equal(t, "tool", summary.Tools.Kind)
	assert.Equal(t, 1, summary.Tools.Total)
	assert.Equal(t, 1, summary.Prompts.WithCompletions)
	assert.Zero(t, summary.TotalErrors)
	assert.Empty(t, adapter.GetErrors())

	adapter.Reset("test")
	assert.Equal(t, 1, adapter.GetSummary().Tools.Total)
}

func TestAPIAdapter_DiscoveryErrors(t *testing.T) {
	adapter, _ := newAdapter(t)

	scanErrors := []string{"[acme/tools] bad.tool.yaml: invalid YAML"}
	adapter.SetDiscoveryErrors(func() []string { return scanErrors })

	assert.Equal(t, map[string][]string{api.DiscoveryErrorsKey: scanErrors}, adapter.GetErrors())

	summary := adapter.GetSummary()
	assert.Equal(t, 1, summary.DiscoveryErrors)
	assert.Equal(t, 1, summary.TotalErrors)

	scanErrors = nil
	assert.Empty(t, adapter.GetErrors())
	assert.Zero(t, adapter.GetSummary().TotalErrors)
}
