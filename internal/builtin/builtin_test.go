package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"capstan/internal/api"
	"capstan/internal/capability"
	"capstan/internal/completion"
	"capstan/internal/registry"
	"capstan/internal/workspace"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	root        string
	catalog     *registry.Catalog
	completions *completion.Catalog
}

func setup(t *testing.T, backups, git bool) *env {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"content/index.md":           "# Home",
		"content/about.md":           "About us",
		"content/guides/api-docs.md": "API reference",
		"assets/logo.png":            "png",
	}
	if git {
		files[".git/HEAD"] = "ref: refs/heads/main"
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	ws, err := workspace.New(workspace.Options{Root: root, BackupDir: ".backups", BackupsEnabled: backups})
	require.NoError(t, err)
	ws.Register()

	originalLookPath := lookPath
	lookPath = func(string) (string, error) { return "/usr/bin/git", nil }

	types := capability.NewTypes()
	completions := completion.NewCatalog()
	require.NoError(t, Register(types, completions))

	catalog := registry.NewCatalog(registry.CatalogConfig{
		Resolver:  types,
		Core:      Core(),
		Companion: GitCompanion(),
	})
	registry.NewAPIAdapter(catalog, completions).Register()

	t.Cleanup(func() {
		lookPath = originalLookPath
		api.RegisterWorkspace(nil)
		api.RegisterCatalog(nil)
	})

	return &env{root: root, catalog: catalog, completions: completions}
}

func toolText(t *testing.T, v any) string {
	t.Helper()
	res, ok := v.(*mcp.CallToolResult)
	require.True(t, ok, "expected *mcp.CallToolResult, got %T", v)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func invoke(t *testing.T, r *registry.Registry, name string, args map[string]any) any {
	t.Helper()
	def, ok := r.Definition(name)
	require.True(t, ok, "definition %s not registered", name)
	result, err := def.Invoke(context.Background(), args)
	require.NoError(t, err)
	return result
}

func TestRegister_Duplicate(t *testing.T) {
	types := capability.NewTypes()
	completions := completion.NewCatalog()
	require.NoError(t, Register(types, completions))
	assert.Len(t, types.Refs(), len(Classes()))
	assert.Equal(t, []string{DocumentPathsRef, TonesRef}, completions.Refs())

	assert.Error(t, Register(types, completion.NewCatalog()))
}

func TestCoreCatalog_Summary(t *testing.T) {
	e := setup(t, true, false)

	summary := e.catalog.Summary()
	assert.Equal(t, 8, summary.Tools.Total)
	assert.Equal(t, 2, summary.Tools.Dangerous)
	assert.Equal(t, map[string]int{registry.CoreSource: 8}, summary.Tools.BySource)
	assert.Equal(t, map[string]int{"content": 2, "assets": 1, "maintenance": 1, "system": 4}, summary.Tools.ByCategory)
	assert.Equal(t, 2, summary.Prompts.Total)
	assert.Equal(t, 2, summary.Prompts.WithCompletions)
	assert.Equal(t, 3, summary.Resources.Total)
	assert.Equal(t, 1, summary.Resources.Templates)
	assert.Zero(t, summary.TotalErrors)

	_, ok := e.catalog.Tools().Definition("git_log")
	assert.False(t, ok, "workspace is not a git repository")
}

func TestCoreCatalog_GitCompanion(t *testing.T) {
	e := setup(t, true, true)

	def, ok := e.catalog.Tools().Definition("git_log")
	require.True(t, ok)
	assert.Equal(t, "git", def.Category())
	assert.Equal(t, []string{HistoryToolsRef}, e.catalog.Tools().Contributions()[registry.CoreSource][4:])
}

func TestCoreCatalog_GitNotInstalled(t *testing.T) {
	e := setup(t, true, true)
	lookPath = func(string) (string, error) { return "", errors.New("executable file not found") }
	e.catalog.Reset()

	_, ok := e.catalog.Tools().Definition("git_log")
	assert.False(t, ok)
	assert.Empty(t, e.catalog.Errors())
}

func TestDocumentTools(t *testing.T) {
	e := setup(t, false, false)
	tools := e.catalog.Tools()

	var docs []api.Document
	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, tools, "list_documents", map[string]any{"pattern": "guides/**"}))), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "guides/api-docs.md", docs[0].Path)

	assert.Equal(t, "About us", toolText(t, invoke(t, tools, "read_document", map[string]any{"path": "about.md"})))

	res := invoke(t, tools, "read_document", map[string]any{"path": "../etc/passwd"})
	assert.True(t, res.(*mcp.CallToolResult).IsError)

	res = invoke(t, tools, "read_document", nil)
	assert.True(t, res.(*mcp.CallToolResult).IsError)

	def, _ := tools.Definition("read_document")
	provider, ok := def.CompletionProvider("path")
	assert.True(t, ok)
	assert.Equal(t, DocumentPathsRef, provider)
}

func TestAssetTools(t *testing.T) {
	e := setup(t, false, false)

	var assets []api.Asset
	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, e.catalog.Tools(), "list_assets", nil))), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "image/png", assets[0].MIMEType)
}

func TestBackupTools_Condition(t *testing.T) {
	t.Run("backups disabled", func(t *testing.T) {
		e := setup(t, false, false)
		def, ok := e.catalog.Tools().Definition("create_backup")
		require.True(t, ok)
		assert.True(t, def.Dangerous())
		assert.True(t, def.HasCondition())
		assert.False(t, def.IsConditionMet())
	})

	t.Run("backups enabled", func(t *testing.T) {
		e := setup(t, true, false)
		def, ok := e.catalog.Tools().Definition("create_backup")
		require.True(t, ok)
		assert.True(t, def.IsConditionMet())

		var backup api.Backup
		require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, e.catalog.Tools(), "create_backup", nil))), &backup))
		assert.Equal(t, 4, backup.Files)
		assert.FileExists(t, backup.Path)
	})
}

func TestBackupTools_ConditionFollowsWorkspace(t *testing.T) {
	e := setup(t, true, false)
	def, ok := e.catalog.Tools().Definition("create_backup")
	require.True(t, ok)
	assert.True(t, def.IsConditionMet())

	ws, err := workspace.New(workspace.Options{Root: e.root})
	require.NoError(t, err)
	ws.Register()
	assert.False(t, def.IsConditionMet(), "conditions are evaluated on every call")
}

func TestCatalogTools(t *testing.T) {
	e := setup(t, false, false)
	tools := e.catalog.Tools()

	var summary api.CatalogSummary
	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, tools, "catalog_summary", nil))), &summary))
	assert.Equal(t, 8, summary.Tools.Total)

	assert.Equal(t, "No registration errors", toolText(t, invoke(t, tools, "registration_errors", nil)))

	var values []string
	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, tools, "complete_argument", map[string]any{
		"kind": "prompt", "name": "summarize_document", "argument": "tone", "prefix": "F",
	}))), &values))
	assert.Equal(t, []string{"formal", "friendly"}, values)

	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, tools, "complete_argument", map[string]any{
		"kind": "tool", "name": "read_document", "argument": "path", "prefix": "a",
	}))), &values))
	assert.Equal(t, []string{"about.md"}, values)

	res := invoke(t, tools, "complete_argument", map[string]any{"kind": "tool"})
	assert.True(t, res.(*mcp.CallToolResult).IsError)
	assert.Contains(t, toolText(t, res), "name, argument")

	def, _ := tools.Definition("reset_catalog")
	assert.True(t, def.Dangerous())
	assert.Contains(t, toolText(t, invoke(t, tools, "reset_catalog", nil)), "Catalog reset")
}

func TestDocumentPrompts(t *testing.T) {
	e := setup(t, false, false)
	prompts := e.catalog.Prompts()

	result, ok := invoke(t, prompts, "summarize_document", map[string]any{"path": "index.md", "tone": "concise"}).(*mcp.GetPromptResult)
	require.True(t, ok)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcp.RoleUser, result.Messages[0].Role)
	text := result.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, "concise tone")
	assert.Contains(t, text, "# Home")

	draft, ok := invoke(t, prompts, "draft_document", map[string]any{"topic": "release notes"}).(*mcp.GetPromptResult)
	require.True(t, ok)
	assert.Contains(t, draft.Messages[0].Content.(mcp.TextContent).Text, "neutral tone")

	def, _ := prompts.Definition("draft_document")
	_, err := def.Invoke(context.Background(), nil)
	assert.ErrorContains(t, err, "topic")
}

func TestWorkspaceResources(t *testing.T) {
	e := setup(t, false, false)
	resources := e.catalog.Resources()

	contents, ok := invoke(t, resources, CatalogSummaryURI, nil).([]mcp.ResourceContents)
	require.True(t, ok)
	require.Len(t, contents, 1)
	summary := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, CatalogSummaryURI, summary.URI)
	assert.Equal(t, "application/json", summary.MIMEType)

	def, ok := resources.Definition("document")
	require.True(t, ok)
	assert.True(t, def.Template())
	assert.Equal(t, DocumentTemplateURI, def.URI())

	contents, ok = invoke(t, resources, "document", map[string]any{"path": []string{"guides", "api-docs.md"}, "uri": "capstan://documents/guides/api-docs.md"}).([]mcp.ResourceContents)
	require.True(t, ok)
	doc := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "API reference", doc.Text)
	assert.Equal(t, "capstan://documents/guides/api-docs.md", doc.URI)

	_, err := def.Invoke(context.Background(), map[string]any{"path": "missing.md"})
	assert.True(t, api.IsNotFound(err))
}

func TestCatalogTools_ErrorsIncludeDiscovery(t *testing.T) {
	e := setup(t, false, false)
	adapter := registry.NewAPIAdapter(e.catalog, e.completions)
	adapter.SetDiscoveryErrors(func() []string { return []string{"[acme/tools] bad.tool.yaml: invalid YAML"} })
	adapter.Register()

	var errs map[string][]string
	require.NoError(t, json.Unmarshal([]byte(toolText(t, invoke(t, e.catalog.Tools(), "registration_errors", nil))), &errs))
	assert.Equal(t, map[string][]string{
		api.DiscoveryErrorsKey: {"[acme/tools] bad.tool.yaml: invalid YAML"},
	}, errs)
}
