package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrCorrupt reports that the state file exists but could not be parsed.
// Callers may treat it as recoverable and continue with empty state.
var ErrCorrupt = errors.New("state file is corrupt")

// Store persists watermarks between runs as a single JSON file keyed by
// feed name. Writes are atomic so a crash never leaves a half-written file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the watermark map from disk. A missing file yields an empty
// map. An unparseable file is renamed aside to <path>.corrupt and reported
// with ErrCorrupt alongside an empty map.
func (s *Store) Load() (map[string]*Watermark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*Watermark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var marks map[string]*Watermark
	if err := json.Unmarshal(data, &marks); err != nil {
		// Keep the unreadable file around for inspection, otherwise the
		// next save would overwrite the only copy.
		backupPath := s.path + ".corrupt"
		if renameErr := os.Rename(s.path, backupPath); renameErr == nil {
			slog.Warn("Preserved unparseable state file", "path", backupPath)
		}
		return map[string]*Watermark{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	if marks == nil {
		marks = map[string]*Watermark{}
	}
	return marks, nil
}

// Save replaces the state file with the given watermark map. The file is
// written to a temporary name in the same directory and renamed into place.
func (s *Store) Save(marks map[string]*Watermark) error {
	data, err := json.MarshalIndent(marks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
