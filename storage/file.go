package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"giveabot/models"

	log "github.com/sirupsen/logrus"
)

// FileStore persists the state tree as a JSON file. Saves are atomic: the
// payload is written to a temporary file and renamed into place, so a crash
// mid-write can never leave a truncated state file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file, returning an empty tree when none exists yet
func (s *FileStore) Load(ctx context.Context) (*models.BotState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", s.path).Info("No state file found; starting with empty state")
			return models.NewBotState(), nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	state, err := models.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state file %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes the state tree via a temporary file and an atomic rename
func (s *FileStore) Save(ctx context.Context, state *models.BotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := models.EncodeState(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}
	return nil
}
