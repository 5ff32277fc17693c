package workspace

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"capstan/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newWorkspace(t *testing.T, backups bool) (*Workspace, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "content/index.md", "# Home")
	writeFile(t, root, "content/about.md", "About us")
	writeFile(t, root, "content/guides/api-docs.md", "API")
	writeFile(t, root, "content/guides/diagram.bin", "\x00")
	writeFile(t, root, "assets/logo.png", "png")
	writeFile(t, root, "assets/css/site.css", "body{}")
	writeFile(t, root, "assets/blob.unknownext", "x")

	ws, err := New(Options{Root: root, BackupDir: ".capstan/backups", BackupsEnabled: backups})
	require.NoError(t, err)
	return ws, root
}

func TestNew(t *testing.T) {
	_, err := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(Options{Root: file})
	assert.ErrorContains(t, err, "not a directory")

	ws, err := New(Options{Root: t.TempDir(), BackupsEnabled: true})
	require.NoError(t, err)
	assert.False(t, ws.BackupsEnabled(), "backups need a directory")
}

func TestListDocuments(t *testing.T) {
	ws, _ := newWorkspace(t, false)
	ctx := context.Background()

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"about.md", "guides/api-docs.md", "index.md"}},
		{"*.md", []string{"about.md", "index.md"}},
		{"guides/**", []string{"guides/api-docs.md"}},
		{"**/api-*", []string{"guides/api-docs.md"}},
	}

	for _, tt := range tests {
		t.Run("pattern "+tt.pattern, func(t *testing.T) {
			docs, err := ws.ListDocuments(ctx, tt.pattern)
			require.NoError(t, err)
			paths := make([]string, 0, len(docs))
			for _, d := range docs {
				paths = append(paths, d.Path)
			}
			assert.Equal(t, tt.want, paths)
		})
	}

	_, err := ws.ListDocuments(ctx, "[")
	assert.ErrorContains(t, err, "invalid document pattern")
}

func TestListDocuments_NoContentDir(t *testing.T) {
	ws, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)

	docs, err := ws.ListDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadDocument(t *testing.T) {
	ws, _ := newWorkspace(t, false)
	ctx := context.Background()

	content, err := ws.ReadDocument(ctx, "guides/api-docs.md")
	require.NoError(t, err)
	assert.Equal(t, "API", content)

	content, err = ws.ReadDocument(ctx, "guides/../index.md")
	require.NoError(t, err)
	assert.Equal(t, "# Home", content)

	_, err = ws.ReadDocument(ctx, "missing.md")
	assert.True(t, api.IsNotFound(err))

	for _, bad := range []string{"../secret.md", "/etc/passwd.md", "guides/../../x.md"} {
		_, err = ws.ReadDocument(ctx, bad)
		assert.True(t, errors.Is(err, ErrPathOutsideWorkspace), bad)
	}

	_, err = ws.ReadDocument(ctx, "guides/diagram.bin")
	assert.ErrorContains(t, err, "not a document")

	_, err = ws.ReadDocument(ctx, "")
	assert.Error(t, err)
}

func TestListAssets(t *testing.T) {
	ws, _ := newWorkspace(t, false)

	assets, err := ws.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, "blob.unknownext", assets[0].Path)
	assert.Equal(t, "application/octet-stream", assets[0].MIMEType)
	assert.Equal(t, "css/site.css", assets[1].Path)
	assert.Contains(t, assets[1].MIMEType, "text/css")
	assert.Equal(t, "logo.png", assets[2].Path)
	assert.Equal(t, "image/png", assets[2].MIMEType)
	assert.Equal(t, int64(3), assets[2].Size)
}

func TestCreateBackup(t *testing.T) {
	ws, root := newWorkspace(t, true)
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main")
	assert.True(t, ws.IsGitRepository())

	backup, err := ws.CreateBackup(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, backup.ID)
	assert.Equal(t, 7, backup.Files)
	assert.Equal(t, filepath.Join(root, ".capstan", "backups"), filepath.Dir(backup.Path))

	second, err := ws.CreateBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, second.Files, "earlier backups are not archived")

	f, err := os.Open(backup.Path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, header.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"assets/blob.unknownext",
		"assets/css/site.css",
		"assets/logo.png",
		"content/about.md",
		"content/guides/api-docs.md",
		"content/guides/diagram.bin",
		"content/index.md",
	}, names)
}

func TestCreateBackup_Disabled(t *testing.T) {
	ws, _ := newWorkspace(t, false)
	assert.False(t, ws.IsGitRepository())

	_, err := ws.CreateBackup(context.Background())
	assert.ErrorIs(t, err, ErrBackupsDisabled)
}

func TestCreateBackup_Cancelled(t *testing.T) {
	ws, _ := newWorkspace(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ws.CreateBackup(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(filepath.Join(ws.Root(), ".capstan", "backups"))
	require.NoError(t, err)
	assert.Empty(t, entries, "partial archives are removed")
}
