// Package workspace gives capability contributors access to the host
// workspace: documents under content/, assets under assets/ and archive
// backups of the whole tree.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"capstan/internal/api"
	"capstan/pkg/logging"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ContentDir holds the workspace documents.
	ContentDir = "content"
	// AssetsDir holds every other file served by the workspace.
	AssetsDir = "assets"

	// maxDocumentSize bounds ReadDocument.
	maxDocumentSize = 4 << 20
)

var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".yaml":     true,
	".json":     true,
}

// ErrPathOutsideWorkspace is returned for paths that are absolute or climb
// out of their directory.
var ErrPathOutsideWorkspace = errors.New("path is outside the workspace")

// Options configures a Workspace.
type Options struct {
	Root           string
	BackupDir      string
	BackupsEnabled bool
}

// Workspace is a directory tree on the local filesystem.
type Workspace struct {
	root           string
	backupDir      string
	backupsEnabled bool
}

var _ api.WorkspaceHandler = (*Workspace)(nil)

// New opens the workspace rooted at opts.Root. A relative BackupDir is
// resolved against the root.
func New(opts Options) (*Workspace, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %s: %w", opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root %s is not accessible: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", root)
	}

	backupDir := opts.BackupDir
	if backupDir != "" && !filepath.IsAbs(backupDir) {
		backupDir = filepath.Join(root, backupDir)
	}

	return &Workspace{
		root:           root,
		backupDir:      backupDir,
		backupsEnabled: opts.BackupsEnabled && backupDir != "",
	}, nil
}

// Register registers the workspace with the API layer.
func (w *Workspace) Register() {
	api.RegisterWorkspace(w)
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// BackupsEnabled reports whether CreateBackup may be used.
func (w *Workspace) BackupsEnabled() bool {
	return w.backupsEnabled
}

// IsGitRepository reports whether the root is a git working tree.
func (w *Workspace) IsGitRepository() bool {
	_, err := os.Stat(filepath.Join(w.root, ".git"))
	return err == nil
}

// ListDocuments returns the documents under content/ matching pattern,
// sorted by path. An empty pattern matches every document.
func (w *Workspace) ListDocuments(ctx context.Context, pattern string) ([]api.Document, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid document pattern %q", pattern)
	}

	fsys, ok := w.subFS(ContentDir)
	if !ok {
		return []api.Document{}, nil
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]api.Document, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isDocument(match) {
			continue
		}
		info, err := fs.Stat(fsys, match)
		if err != nil {
			logging.Debug("Workspace", "Skipping %s: %v", match, err)
			continue
		}
		docs = append(docs, api.Document{
			Path:     match,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// ReadDocument returns the content of the document at the content-relative
// path.
func (w *Workspace) ReadDocument(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean, err := localPath(rel)
	if err != nil {
		return "", err
	}
	if !isDocument(clean) {
		return "", fmt.Errorf("%s is not a document", rel)
	}

	full := filepath.Join(w.root, ContentDir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", api.NewDocumentNotFoundError(clean)
		}
		return "", fmt.Errorf("failed to read document %s: %w", clean, err)
	}
	if info.IsDir() {
		return "", api.NewDocumentNotFoundError(clean)
	}
	if info.Size() > maxDocumentSize {
		return "", fmt.Errorf("document %s exceeds %d bytes", clean, maxDocumentSize)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", clean, err)
	}
	return string(data), nil
}

// ListAssets returns every file under assets/ with its size and MIME type.
func (w *Workspace) ListAssets(ctx context.Context) ([]api.Asset, error) {
	fsys, ok := w.subFS(AssetsDir)
	if !ok {
		return []api.Asset{}, nil
	}

	assets := make([]api.Asset, 0)
	err := doublestar.GlobWalk(fsys, "**", func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		assets = append(assets, api.Asset{
			Path:     p,
			Size:     info.Size(),
			MIMEType: mimeType(p),
		})
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

func (w *Workspace) subFS(dir string) (fs.FS, bool) {
	full := filepath.Join(w.root, dir)
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return nil, false
	}
	return os.DirFS(full), true
}

// localPath normalizes a slash-separated relative path and rejects
// anything that would leave its base directory.
func localPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	clean := path.Clean(p)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideWorkspace, p)
	}
	return clean, nil
}

func isDocument(p string) bool {
	return documentExtensions[strings.ToLower(path.Ext(p))]
}

func mimeType(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}
