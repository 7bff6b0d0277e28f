// Package artifacts persists run outputs as files beneath a single root.
// Every artifact lives at artifacts/<model_type>/<run_id>/<name>, so the
// location is reproducible from those three values alone. Writes go through
// a temp file and rename, which keeps readers from ever seeing a partial
// artifact.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"stayscope/internal/config"
	"stayscope/internal/dataset"
	"stayscope/internal/runs"
)

const treeName = "artifacts"

// Store writes and reads artifact files beneath a root directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// NewStoreFromConfig roots the store at the configured artifacts directory.
func NewStoreFromConfig(cfg *config.Config) *Store {
	return NewStore(cfg.Paths.ArtifactsDir)
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// RelPath returns the relative location for an artifact. The same triple
// always yields the same path.
func RelPath(modelType, runID, name string) string {
	return filepath.Join(treeName, modelType, runID, name)
}

// Write stores data atomically and returns the artifact's relative path.
// Re-writing an existing artifact replaces it.
func (s *Store) Write(modelType, runID, name string, data []byte) (string, error) {
	for label, value := range map[string]string{
		"model type": modelType,
		"run id":     runID,
		"name":       name,
	} {
		if strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("artifact %s must not be empty", label)
		}
		if strings.ContainsAny(value, `/\`) {
			return "", fmt.Errorf("artifact %s %q must not contain path separators", label, value)
		}
	}

	dir := filepath.Join(s.root, treeName, modelType, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &runs.StorageError{Op: "create artifact directory", Err: err}
	}
	if err := atomicWrite(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", &runs.StorageError{Op: "write artifact " + name, Err: err}
	}
	return RelPath(modelType, runID, name), nil
}

// WriteJSON marshals v as indented JSON and stores it.
func (s *Store) WriteJSON(modelType, runID, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	return s.Write(modelType, runID, name, append(data, '\n'))
}

// WriteTableCSV exports a table as CSV and stores it.
func (s *Store) WriteTableCSV(modelType, runID, name string, t *dataset.Table) (string, error) {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, t); err != nil {
		return "", fmt.Errorf("encode artifact %s: %w", name, err)
	}
	return s.Write(modelType, runID, name, buf.Bytes())
}

// Read returns an artifact's bytes by relative path.
func (s *Store) Read(relPath string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &runs.NotFoundError{Entity: "artifact file", Key: relPath}
		}
		return nil, &runs.StorageError{Op: "read artifact " + relPath, Err: err}
	}
	return data, nil
}

// Path resolves a relative artifact path against the store root.
func (s *Store) Path(relPath string) string {
	return filepath.Join(s.root, relPath)
}

// atomicWrite stages data in a temp file beside path and renames it into
// place. Readers never observe a partial artifact.
func atomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("stage %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("promote %s: %w", tmp.Name(), err)
	}
	return nil
}
