package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the settings document in a single JSON file. Writes go
// through a temp file and rename so a crash mid-save never leaves a
// truncated document behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and sanitizes the stored document. A missing file is not an
// error: it yields the defaults.
func (f *FileStore) Load(ctx context.Context) (Settings, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("error reading settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("error parsing settings file: %w", err)
	}

	return s.Normalize(), nil
}

// Save normalizes and persists the document atomically.
func (f *FileStore) Save(ctx context.Context, s Settings) error {
	data, err := json.MarshalIndent(s.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating settings directory: %w", err)
	}

	// The temp file must live on the same filesystem as the target for
	// the rename to be atomic.
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("error creating settings temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           // nolint:errcheck
		os.Remove(tmp.Name()) // nolint:errcheck
		return fmt.Errorf("error writing settings temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) // nolint:errcheck
		return fmt.Errorf("error closing settings temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name()) // nolint:errcheck
		return fmt.Errorf("error replacing settings file: %w", err)
	}

	return nil
}
