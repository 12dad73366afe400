package draftstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// FileStore keeps the draft as <dir>/<key>.json.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir, key string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: filepath.Join(dir, key+".json"), logger: logger}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted draft if present.
func (s *FileStore) Load() (profile.Draft, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profile.Draft{}, ErrNotFound
		}
		return profile.Draft{}, fmt.Errorf("draftstore: read %s: %w", s.path, err)
	}
	return decode(data, s.logger, BackendFile)
}

// Save writes the draft through a temp file and rename.
func (s *FileStore) Save(d profile.Draft) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("draftstore: create dir: %w", err)
	}
	encoded, err := encode(d)
	if err != nil {
		return fmt.Errorf("draftstore: encode draft: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("draftstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("draftstore: write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("draftstore: close draft: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("draftstore: replace draft: %w", err)
	}
	return nil
}

// Clear removes the draft file. Clearing an absent draft is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("draftstore: remove draft: %w", err)
	}
	return nil
}
