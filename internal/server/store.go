package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/models"
)

// TaskStore is the mock service's store of record: a mutex-guarded
// in-memory slice.
type TaskStore struct {
	mu    sync.Mutex
	tasks []models.Task
}

// NewTaskStore returns a store seeded with the demo board.
func NewTaskStore() *TaskStore {
	seeded := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return &TaskStore{
		tasks: []models.Task{
			{ID: "1", Title: "Wire nav", Description: "Sketch top nav", Status: models.StatusTodo, Priority: models.PriorityMedium, CreatedAt: seeded, UpdatedAt: seeded},
			{ID: "2", Title: "Design system", Description: "Create component library and design tokens", Status: models.StatusInProgress, Priority: models.PriorityHigh, CreatedAt: seeded, UpdatedAt: seeded},
			{ID: "3", Title: "User research", Description: "Conduct user interviews and surveys", Status: models.StatusDone, Priority: models.PriorityLow, CreatedAt: seeded, UpdatedAt: seeded},
		},
	}
}

// List returns a copy of all tasks.
func (s *TaskStore) List() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Create appends a new task in the todo column with fresh id and timestamps.
func (s *TaskStore) Create(data models.CreateTaskData) models.Task {
	now := time.Now()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       data.Title,
		Description: data.Description,
		Status:      models.StatusTodo,
		Priority:    data.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

// Patch merges the set fields of updates into the task and refreshes
// updatedAt. It reports false when the task is absent.
func (s *TaskStore) Patch(id string, updates models.UpdateTaskData) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		updates.Apply(&s.tasks[i])
		s.tasks[i].UpdatedAt = time.Now()
		return s.tasks[i], true
	}
	return models.Task{}, false
}

// Delete removes the task with the given id, reporting whether it existed.
func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}
