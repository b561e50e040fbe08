// Package filestore keeps training artifacts as two JSON files in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
)

const (
	ModelFile  = "model.json"
	LabelsFile = "labels.json"
)

// Store implements artifact.Store on a directory.
type Store struct {
	dir string
}

var _ artifact.Store = (*Store)(nil)

// New returns a store rooted at dir. The directory is created on first Put.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Put stages both blobs as temp files and renames them into place only after
// both are fully written. When installing the model fails the previous labels
// are put back.
func (s *Store) Put(ctx context.Context, model, labels []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	modelTmp, err := writeTemp(s.dir, ModelFile, model)
	if err != nil {
		return err
	}
	labelsTmp, err := writeTemp(s.dir, LabelsFile, labels)
	if err != nil {
		os.Remove(modelTmp)
		return err
	}

	if err := ctx.Err(); err != nil {
		os.Remove(modelTmp)
		os.Remove(labelsTmp)
		return err
	}

	// the previous labels are kept aside until the model is in place, so a
	// failed model install leaves the old pair untouched
	labelsPath := filepath.Join(s.dir, LabelsFile)
	prevPath := filepath.Join(s.dir, "."+LabelsFile+".prev")
	hadPrev := true
	if err := os.Rename(labelsPath, prevPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			os.Remove(modelTmp)
			os.Remove(labelsTmp)
			return fmt.Errorf("back up labels: %w", err)
		}
		hadPrev = false
	}

	if err := os.Rename(labelsTmp, labelsPath); err != nil {
		os.Remove(modelTmp)
		os.Remove(labelsTmp)
		return errors.Join(fmt.Errorf("install labels: %w", err), restore(prevPath, labelsPath, hadPrev))
	}
	if err := os.Rename(modelTmp, filepath.Join(s.dir, ModelFile)); err != nil {
		os.Remove(modelTmp)
		return errors.Join(fmt.Errorf("install model: %w", err), restore(prevPath, labelsPath, hadPrev))
	}
	if hadPrev {
		os.Remove(prevPath)
	}
	return nil
}

// restore puts the backed up labels back, or removes the new ones when there
// was nothing before.
func restore(prevPath, labelsPath string, hadPrev bool) error {
	if !hadPrev {
		if err := os.Remove(labelsPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove labels: %w", err)
		}
		return nil
	}
	if err := os.Rename(prevPath, labelsPath); err != nil {
		return fmt.Errorf("restore labels: %w", err)
	}
	return nil
}

// Get reads both blobs. A missing file yields artifact.ErrNotFound.
func (s *Store) Get(ctx context.Context) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	model, err := readBlob(filepath.Join(s.dir, ModelFile))
	if err != nil {
		return nil, nil, err
	}
	labels, err := readBlob(filepath.Join(s.dir, LabelsFile))
	if err != nil {
		return nil, nil, err
	}
	return model, labels, nil
}

// Close implements artifact.Store.
func (s *Store) Close() error { return nil }

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

func readBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
