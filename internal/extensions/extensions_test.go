package extensions

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"capstan/internal/capability"
	"capstan/internal/config"
	"capstan/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owner struct{}

func (o *owner) run(context.Context, map[string]any) (any, error) { return "ok", nil }

func class(ref string, op capability.Operation) *capability.Class {
	op.Handler = capability.Method((*owner).run)
	return &capability.Class{
		Ref: ref,
		New: func() (any, error) { return &owner{}, nil },
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{op}}, nil
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "source: acme\ntools: [acme/search.Tools]\n")
	writeFile(t, filepath.Join(dir, "a.yml"), "source: beta\nprompts: [beta/p.Prompts]\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "source: [unterminated\n")
	writeFile(t, filepath.Join(dir, "invalid.yaml"), "source: has spaces\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	manifests, errs := LoadManifests(dir)
	require.Len(t, manifests, 2)
	assert.Equal(t, "beta", manifests[0].Source)
	assert.Equal(t, "acme", manifests[1].Source)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), manifests[1].File)

	require.Equal(t, 2, errs.Count())
	assert.Equal(t, "broken.yaml", errs.Errors[0].FileName)
	assert.Equal(t, config.ErrorTypeParse, errs.Errors[0].ErrorType)
	assert.Equal(t, "invalid.yaml", errs.Errors[1].FileName)
	assert.Equal(t, config.ErrorTypeValidation, errs.Errors[1].ErrorType)
	assert.Contains(t, errs.Errors[1].Message, "cannot contain spaces")
	assert.Len(t, errs.GetErrorsByCategory(config.CategoryExtensions), 2)
}

func TestLoadManifests_MissingDir(t *testing.T) {
	manifests, errs := LoadManifests(filepath.Join(t.TempDir(), "absent"))
	assert.Empty(t, manifests)
	assert.False(t, errs.HasErrors())
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  string
	}{
		{"valid", Manifest{Source: "acme"}, ""},
		{"missing source", Manifest{}, "is required"},
		{"empty discovery path", Manifest{Source: "acme", DiscoveryPaths: []DiscoveryPath{{}}}, "discoveryPaths[0].path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestManifest_ResolvePath(t *testing.T) {
	m := Manifest{File: "/etc/capstan/extensions/acme.yaml"}
	assert.Equal(t, "/etc/capstan/extensions/tools", m.ResolvePath(DiscoveryPath{Path: "tools"}))
	assert.Equal(t, "/opt/tools", m.ResolvePath(DiscoveryPath{Path: "/opt/tools/"}))
}

func TestExtension_ContributesPerKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "acme.yaml"), `source: acme
tools:
  - acme/search.Tools
prompts:
  - acme/review.Prompts
discoveryPaths:
  - path: tools
    subdirectories: [".", "more"]
  - path: missing
`)
	writeFile(t, filepath.Join(dir, "core.yaml"), "source: Core\ntools: [acme/search.Tools]\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "tools: {\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools"), 0o755))

	types := capability.NewTypes()
	require.NoError(t, types.Register(
		class("acme/search.Tools", capability.Operation{Name: "Search", Tool: &capability.ToolMarker{Name: "search"}}),
		class("acme/review.Prompts", capability.Operation{Name: "Review", Prompt: &capability.PromptMarker{Name: "review"}}),
	))

	catalog := registry.NewCatalog(registry.CatalogConfig{
		Resolver:   types,
		Extensions: []registry.ExtensionPoint{NewExtension(dir)},
	})

	tools := catalog.Tools()
	def, ok := tools.Definition("search")
	require.True(t, ok)
	assert.Equal(t, "acme", def.Source())
	assert.Equal(t, map[string][]registry.DiscoveryPath{
		"acme": {{Path: filepath.Join(dir, "tools"), Subdirectories: []string{".", "more"}}},
	}, tools.DiscoveryPaths())

	errs := tools.Errors()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "[manifest] broken.yaml: invalid YAML")
	assert.Contains(t, errs[1], "[acme] discovery path")
	assert.Contains(t, errs[1], "does not exist")
	assert.Contains(t, errs[2], `[Core] cannot register "acme/search.Tools": source "Core" is reserved`)

	prompts := catalog.Prompts()
	_, ok = prompts.Definition("review")
	assert.True(t, ok)
	assert.Empty(t, prompts.DiscoveryPaths())
	assert.Empty(t, prompts.Errors(), "manifest errors belong to the tool pass")

	assert.Empty(t, catalog.Resources().Definitions())
}

func TestExtension_BrokenManifestReportedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "tools: {\n")

	catalog := registry.NewCatalog(registry.CatalogConfig{
		Resolver:   capability.NewTypes(),
		Extensions: []registry.ExtensionPoint{NewExtension(dir)},
	})

	summary := catalog.Summary()
	assert.Equal(t, 1, summary.TotalErrors)
	assert.Equal(t, 1, summary.Tools.Errors)
	assert.Zero(t, summary.Prompts.Errors)
	assert.Zero(t, summary.Resources.Errors)

	errs := catalog.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"[manifest] broken.yaml: invalid YAML"}, errs[capability.KindTool])
}

func TestExtension_ResetRereadsManifests(t *testing.T) {
	dir := t.TempDir()
	types := capability.NewTypes()
	require.NoError(t, types.Register(
		class("acme/search.Tools", capability.Operation{Name: "Search", Tool: &capability.ToolMarker{Name: "search"}}),
	))
	r := registry.New(registry.Config{
		Kind:       capability.KindTool,
		Resolver:   types,
		Extensions: []registry.ExtensionPoint{NewExtension(dir)},
	})

	assert.Empty(t, r.Definitions())

	writeFile(t, filepath.Join(dir, "acme.yaml"), "source: acme\ntools: [acme/search.Tools]\n")
	assert.Empty(t, r.Definitions(), "the pass result is kept until reset")

	r.Reset()
	assert.Len(t, r.Definitions(), 1)
}

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (c *changeRecorder) record(files []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, files)
}

func (c *changeRecorder) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.batches...)
}

func TestWatcher_DebouncesYAMLChanges(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}
	w := NewWatcher([]string{dir}, 50*time.Millisecond, rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	path := filepath.Join(dir, "acme.yaml")
	for i := 0; i < 3; i++ {
		writeFile(t, path, "source: acme\n")
	}
	writeFile(t, filepath.Join(dir, "readme.md"), "ignored")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{path}, rec.snapshot()[0])

	time.Sleep(150 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1, "a burst produces one callback")
}

func fsnotifyWrite(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}

func TestWatcher_StopDropsPending(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}
	w := NewWatcher([]string{dir}, time.Hour, rec.record)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second start is a no-op")

	w.handleEvent(fsnotifyWrite(filepath.Join(dir, "acme.yaml")))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	w.flush()
	assert.Empty(t, rec.snapshot())
}

func TestWatcher_CallbackPanicRecovered(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{dir}, time.Hour, func([]string) { panic("boom") })
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	w.handleEvent(fsnotifyWrite(filepath.Join(dir, "acme.yaml")))
	assert.NotPanics(t, w.flush)
}

func TestIsYAMLFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.yaml", true},
		{"a.YML", true},
		{"a.yaml.bak", false},
		{"a.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isYAMLFile(tt.path))
		})
	}
}
