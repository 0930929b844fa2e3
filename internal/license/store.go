package license

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvelopeStore persists the license envelope between validation cycles
type EnvelopeStore interface {
	// Load returns the stored envelope, or ErrNoLicense if none exists.
	Load() (*Envelope, error)
	// Replace swaps the stored envelope wholesale. The previous content is
	// never patched in place; a failed replace leaves it intact.
	Replace(env *Envelope) error
}

// FileStore is the file-backed EnvelopeStore. Writes go through a temp file
// in the same directory followed by a rename, so cancellation or a crash
// mid-write never leaves a partially written license file.
type FileStore struct {
	path string
}

// NewFileStore creates a store around the given license file path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the license file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the stored envelope
func (s *FileStore) Load() (*Envelope, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLicense
		}
		return nil, fmt.Errorf("failed to read license file: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse license file: %w", err)
	}
	return &env, nil
}

// Replace atomically swaps the stored envelope
func (s *FileStore) Replace(env *Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".license-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp license file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp license file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set license file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp license file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace license file: %w", err)
	}
	return nil
}
