package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"pricewatch/internal/model"
)

// FileStore keeps all item states in a single JSON document keyed by item ID.
// Saves rewrite the whole document to a temp file and rename it over the old
// one, so readers (and crashes) only ever see a complete document.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]model.MonitorState
}

// NewFileStore opens (or creates) the store at path and restores any
// previously persisted states.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create state dir: %v", ErrUnavailable, err)
		}
	}

	s := &FileStore{
		path:   path,
		logger: logger,
		states: make(map[string]model.MonitorState),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("state file not found, starting fresh", "path", path)
	case err != nil:
		return nil, fmt.Errorf("%w: read state file: %v", ErrUnavailable, err)
	default:
		if err := json.Unmarshal(data, &s.states); err != nil {
			return nil, fmt.Errorf("%w: state file %s is corrupt: %v", ErrUnavailable, path, err)
		}
		logger.Info("state restored", "path", path, "items", len(s.states))
	}

	return s, nil
}

func (s *FileStore) Load(_ context.Context, itemID string) (*model.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[itemID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *FileStore) Save(_ context.Context, state model.MonitorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.states[state.ItemID]
	s.states[state.ItemID] = state

	if err := s.persistLocked(); err != nil {
		// Roll back the in-memory copy so memory and disk stay in sync.
		if hadPrev {
			s.states[state.ItemID] = prev
		} else {
			delete(s.states, state.ItemID)
		}
		return err
	}
	return nil
}

// persistLocked writes the whole document via temp file + rename.
func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.states, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", ErrUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write state file: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace state file: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *FileStore) Close() {}
