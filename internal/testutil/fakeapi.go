// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/notify"
)

// FakeAPI is an in-memory implementation of api.TaskAPI for testing. It
// records every call in order and supports per-operation error injection.
type FakeAPI struct {
	mu     sync.Mutex
	nextID int
	Tasks  []models.Task
	Calls  []string

	// Error injection for testing
	ListErr   error
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// When non-nil, each mutating call signals on Entered and then blocks
	// on Release. Used to hold a drain mid-dispatch.
	Entered chan struct{}
	Release chan struct{}
}

// NewFakeAPI returns a fake service pre-loaded with the given tasks.
func NewFakeAPI(tasks ...models.Task) *FakeAPI {
	return &FakeAPI{Tasks: tasks}
}

func (f *FakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// CallLog returns a copy of the recorded calls in order.
func (f *FakeAPI) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}

func (f *FakeAPI) gate() {
	if f.Entered != nil {
		f.Entered <- struct{}{}
	}
	if f.Release != nil {
		<-f.Release
	}
}

func (f *FakeAPI) ListTasks(ctx context.Context) ([]models.Task, error) {
	f.record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, len(f.Tasks))
	copy(out, f.Tasks)
	return out, nil
}

func (f *FakeAPI) GetTask(ctx context.Context, id string) (models.Task, error) {
	f.record("get:" + id)
	if f.GetErr != nil {
		return models.Task{}, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, &api.ServerError{Status: 404}
}

func (f *FakeAPI) CreateTask(ctx context.Context, data models.CreateTaskData) (models.Task, error) {
	f.gate()
	f.record("create:" + data.Title)
	if f.CreateErr != nil {
		return models.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := time.Now()
	task := models.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       data.Title,
		Description: data.Description,
		Status:      models.StatusTodo,
		Priority:    data.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.Tasks = append(f.Tasks, task)
	return task, nil
}

func (f *FakeAPI) UpdateTask(ctx context.Context, id string, updates models.UpdateTaskData) (models.Task, error) {
	f.gate()
	f.record("update:" + id)
	if f.UpdateErr != nil {
		return models.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Tasks {
		if f.Tasks[i].ID != id {
			continue
		}
		updates.Apply(&f.Tasks[i])
		f.Tasks[i].UpdatedAt = time.Now()
		return f.Tasks[i], nil
	}
	return models.Task{}, &api.ServerError{Status: 404}
}

func (f *FakeAPI) DeleteTask(ctx context.Context, id string) error {
	f.gate()
	f.record("delete:" + id)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
			return nil
		}
	}
	return &api.ServerError{Status: 404}
}

// RecorderNotifier captures notifications for assertions.
type RecorderNotifier struct {
	mu            sync.Mutex
	Notifications []notify.Notification
}

func (r *RecorderNotifier) Notify(ctx context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, n)
}

// Messages returns the captured notification messages in order.
func (r *RecorderNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Notifications))
	for i, n := range r.Notifications {
		out[i] = n.Message
	}
	return out
}

// Last returns the most recent notification.
func (r *RecorderNotifier) Last() (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notifications) == 0 {
		return notify.Notification{}, false
	}
	return r.Notifications[len(r.Notifications)-1], true
}
