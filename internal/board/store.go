// Package board holds the client-side task list and the optimistic
// mutation contract: apply locally first, then reconcile with the server
// response, rolling back on failure.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/offline"
)

// ErrUnknownTask is returned for mutations targeting a task the store has
// never seen.
var ErrUnknownTask = errors.New("unknown task")

// DefaultUndoWindow is how long the Undo action stays available after a
// successful move.
const DefaultUndoWindow = 5 * time.Second

// Store is the board's cached copy of the task list. Fields may transiently
// diverge from the server while a mutation is in flight; each mutation runs
// optimistic-applied until the response confirms it or rolls it back.
type Store struct {
	remote     api.TaskAPI
	notifier   notify.Notifier
	undoWindow time.Duration

	mu     sync.Mutex
	tasks  []models.Task
	queued map[string]bool

	reload singleflight.Group
}

// NewStore returns a store backed by remote (normally the offline-aware
// client). undoWindow <= 0 selects DefaultUndoWindow.
func NewStore(remote api.TaskAPI, notifier notify.Notifier, undoWindow time.Duration) *Store {
	if undoWindow <= 0 {
		undoWindow = DefaultUndoWindow
	}
	return &Store{
		remote:     remote,
		notifier:   notifier,
		undoWindow: undoWindow,
		queued:     make(map[string]bool),
	}
}

// Load replaces the cached list with a fresh fetch. Concurrent calls share
// a single request.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.reload.Do("tasks", func() (interface{}, error) {
		tasks, err := s.remote.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.tasks = tasks
		s.queued = make(map[string]bool)
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to load tasks", Level: notify.LevelError})
		return err
	}
	return nil
}

// Tasks returns a copy of the cached task list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// ByStatus returns the cached tasks in one column, in list order.
func (s *Store) ByStatus(status models.TaskStatus) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the cached task with the given id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Queued reports whether the task has a pending offline mutation.
func (s *Store) Queued(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued[id] || offline.IsQueuedID(id)
}

// Create makes a new task. There is no optimistic insert: a failed create
// has nothing to revert, so the task is only added once the remote call (or
// the offline queue) hands back a result.
func (s *Store) Create(ctx context.Context, data models.CreateTaskData) (models.Task, error) {
	task, err := s.remote.CreateTask(ctx, data)
	if err != nil {
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to create task", Level: notify.LevelError})
		return models.Task{}, err
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	if offline.IsQueuedID(task.ID) {
		s.queued[task.ID] = true
	}
	s.mu.Unlock()

	if offline.IsQueuedID(task.ID) {
		s.notifier.Notify(ctx, notify.Notification{Message: "Task creation queued until back online", Level: notify.LevelInfo})
	} else {
		s.notifier.Notify(ctx, notify.Notification{Message: "Task created successfully", Level: notify.LevelSuccess})
	}
	return task, nil
}

// Move changes a task's column optimistically. A confirmed move offers a
// one-shot Undo for the undo window; a failed move rolls the column back.
func (s *Store) Move(ctx context.Context, id string, to models.TaskStatus) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	from := s.tasks[idx].Status
	if from == to {
		s.mu.Unlock()
		return nil
	}
	s.tasks[idx].Status = to
	s.mu.Unlock()

	status := to
	result, err := s.remote.UpdateTask(ctx, id, models.UpdateTaskData{Status: &status})
	if err != nil {
		s.setStatus(id, from)
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to move task", Level: notify.LevelError})
		return err
	}
	if offline.IsQueuedID(result.ID) {
		s.markQueued(id)
		s.notifier.Notify(ctx, notify.Notification{Message: "Task move queued until back online", Level: notify.LevelInfo})
		return nil
	}
	s.replace(result)

	prior := from
	s.notifier.Notify(ctx, notify.Notification{
		Message:  fmt.Sprintf("Task moved to %s", strings.ReplaceAll(string(to), "-", " ")),
		Level:    notify.LevelInfo,
		Duration: s.undoWindow,
		Action: &notify.Action{
			Label: "Undo",
			Fn: func() {
				_ = s.Undo(context.Background(), id, prior)
			},
		},
	})
	return nil
}

// Undo restores a task's prior column. It is a new forward mutation under
// the same optimistic contract, not a transaction rollback; if it fails the
// store reloads from the server rather than patching locally a second time.
func (s *Store) Undo(ctx context.Context, id string, prior models.TaskStatus) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	s.tasks[idx].Status = prior
	s.mu.Unlock()

	status := prior
	result, err := s.remote.UpdateTask(ctx, id, models.UpdateTaskData{Status: &status})
	if err != nil {
		_ = s.Load(ctx)
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to undo move", Level: notify.LevelError})
		return err
	}
	if offline.IsQueuedID(result.ID) {
		s.markQueued(id)
	} else {
		s.replace(result)
	}
	s.notifier.Notify(ctx, notify.Notification{Message: "Move undone successfully", Level: notify.LevelSuccess})
	return nil
}

// Update applies a partial edit optimistically and reconciles with the
// server's merged copy, restoring the pre-mutation task on failure.
func (s *Store) Update(ctx context.Context, id string, updates models.UpdateTaskData) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	prev := s.tasks[idx]
	updates.Apply(&s.tasks[idx])
	s.mu.Unlock()

	result, err := s.remote.UpdateTask(ctx, id, updates)
	if err != nil {
		s.replace(prev)
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to update task", Level: notify.LevelError})
		return err
	}
	if offline.IsQueuedID(result.ID) {
		s.markQueued(id)
		s.notifier.Notify(ctx, notify.Notification{Message: "Task update queued until back online", Level: notify.LevelInfo})
		return nil
	}
	s.replace(result)
	s.notifier.Notify(ctx, notify.Notification{Message: "Task updated successfully", Level: notify.LevelSuccess})
	return nil
}

// Delete removes a task optimistically, reinserting it if the remote call
// fails.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownTask
	}
	prev := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.mu.Unlock()

	if err := s.remote.DeleteTask(ctx, id); err != nil {
		s.insertAt(prev, idx)
		s.notifier.Notify(ctx, notify.Notification{Message: "Failed to delete task", Level: notify.LevelError})
		return err
	}
	s.notifier.Notify(ctx, notify.Notification{Message: "Task deleted successfully", Level: notify.LevelSuccess})
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) setStatus(id string, status models.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx >= 0 {
		s.tasks[idx].Status = status
	}
}

func (s *Store) replace(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(task.ID); idx >= 0 {
		s.tasks[idx] = task
	}
}

func (s *Store) insertAt(task models.Task, idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx > len(s.tasks) {
		idx = len(s.tasks)
	}
	s.tasks = append(s.tasks[:idx], append([]models.Task{task}, s.tasks[idx:]...)...)
}

func (s *Store) markQueued(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[id] = true
}
