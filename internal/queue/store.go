package queue

import (
	"context"
	"encoding/json"
	"os"

	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

// Store persists the ordered list of pending mutations across restarts.
// Storage failures are absorbed: Load returns an empty queue on a missing
// or corrupt store, Save logs and continues. The queue stays correct in
// memory; only durability degrades.
type Store interface {
	Load(ctx context.Context) []models.QueuedAction
	Save(ctx context.Context, actions []models.QueuedAction)
}

// FileStore keeps the queue as a JSON array in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) []models.QueuedAction {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "Queue file read failed, treating queue as empty", "error", err, "path", s.path)
		}
		return nil
	}
	var actions []models.QueuedAction
	if err := json.Unmarshal(b, &actions); err != nil {
		logger.Warn(ctx, "Queue file corrupt, treating queue as empty", "error", err, "path", s.path)
		return nil
	}
	return actions
}

func (s *FileStore) Save(ctx context.Context, actions []models.QueuedAction) {
	if actions == nil {
		actions = []models.QueuedAction{}
	}
	b, err := json.Marshal(actions)
	if err != nil {
		logger.Warn(ctx, "Queue marshal failed", "error", err)
		return
	}
	// Write-then-rename so a crash mid-write never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		logger.Warn(ctx, "Queue file write failed", "error", err, "path", s.path)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logger.Warn(ctx, "Queue file rename failed", "error", err, "path", s.path)
	}
}
