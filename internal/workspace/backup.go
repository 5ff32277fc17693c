package workspace

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"capstan/internal/api"
	"capstan/pkg/logging"

	"github.com/google/uuid"
)

// ErrBackupsDisabled is returned by CreateBackup when backups are turned off.
var ErrBackupsDisabled = errors.New("backups are disabled for this workspace")

// CreateBackup archives the workspace into a gzip-compressed tarball under
// the backup directory. The backup directory and .git are excluded.
func (w *Workspace) CreateBackup(ctx context.Context) (*api.Backup, error) {
	if !w.backupsEnabled {
		return nil, ErrBackupsDisabled
	}

	if err := os.MkdirAll(w.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	id := uuid.New().String()
	createdAt := time.Now().UTC()
	name := fmt.Sprintf("capstan-%s-%s.tar.gz", createdAt.Format("20060102T150405Z"), id[:8])
	target := filepath.Join(w.backupDir, name)

	files, err := w.writeArchive(ctx, target)
	if err != nil {
		_ = os.Remove(target)
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup %s: %w", target, err)
	}

	logging.Info("Workspace", "Created backup %s with %d files (%d bytes)", target, files, info.Size())

	return &api.Backup{
		ID:        id,
		Path:      target,
		Files:     files,
		Size:      info.Size(),
		CreatedAt: createdAt,
	}, nil
}

func (w *Workspace) writeArchive(ctx context.Context, target string) (files int, err error) {
	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close backup file: %w", cerr)
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if w.excluded(p, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == w.root || !d.Type().IsRegular() {
			return nil
		}

		if err := addFile(tw, w.root, p); err != nil {
			return err
		}
		files++
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("failed to archive workspace: %w", walkErr)
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize compression: %w", err)
	}
	return files, nil
}

func (w *Workspace) excluded(p string, d fs.DirEntry) bool {
	if d.IsDir() && d.Name() == ".git" {
		return true
	}
	return p == w.backupDir || strings.HasPrefix(p, w.backupDir+string(filepath.Separator))
}

func addFile(tw *tar.Writer, root, p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, p)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
