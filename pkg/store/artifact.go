package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
)

// Artifacts persists one cleaned table per dataset.
type Artifacts interface {
	// Save replaces the dataset's artifact wholesale and returns its location.
	Save(ctx context.Context, id dataset.ID, t *dataset.Table) (string, error)
	// Load returns the dataset's artifact, or dataset.ErrPrerequisiteMissing.
	Load(ctx context.Context, id dataset.ID) (*dataset.Table, error)
}

// FileArtifacts stores artifacts as <dir>/<dataset>_clean.csv. Writes go to a
// temporary file in the same directory and are renamed into place, so readers
// see either the previous artifact or the new one.
type FileArtifacts struct {
	dir string
}

// NewFileArtifacts creates the directory if needed.
func NewFileArtifacts(dir string) (*FileArtifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cleaned dir %s: %w", dir, err)
	}
	return &FileArtifacts{dir: dir}, nil
}

// Path returns the artifact location for a dataset.
func (s *FileArtifacts) Path(id dataset.ID) string {
	return filepath.Join(s.dir, filepath.Base(string(id))+"_clean.csv")
}

func (s *FileArtifacts) Save(ctx context.Context, id dataset.ID, t *dataset.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dest := s.Path(id)
	if err := writeAtomic(dest, func(f *os.File) error { return t.WriteCSV(f) }); err != nil {
		return "", fmt.Errorf("save artifact %s: %w", id, err)
	}
	return dest, nil
}

func (s *FileArtifacts) Load(ctx context.Context, id dataset.ID) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(id)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", dataset.ErrPrerequisiteMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", id, err)
	}
	defer f.Close()

	t, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", id, err)
	}
	return t, nil
}

// writeAtomic writes through fill into a temp file next to dest, syncs it and
// renames it over dest.
func writeAtomic(dest string, fill func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}
