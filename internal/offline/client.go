package offline

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/connectivity"
	"taskboard/internal/models"
)

// QueuedIDPrefix marks placeholder tasks returned for mutations that were
// queued instead of sent. The UI derives the "queued" badge from it.
const QueuedIDPrefix = "temp-"

// IsQueuedID reports whether id belongs to a queued placeholder task.
func IsQueuedID(id string) bool {
	return strings.HasPrefix(id, QueuedIDPrefix)
}

// Client implements api.TaskAPI over a raw client plus the offline queue.
// Reads always go to the remote service. Mutations go remote while online;
// while offline they are enqueued and a placeholder result comes back
// immediately, so callers never see an offline mutation fail.
type Client struct {
	remote  api.TaskAPI
	coord   *Coordinator
	monitor *connectivity.Monitor
}

// NewClient wraps remote with offline queueing driven by monitor.
func NewClient(remote api.TaskAPI, coord *Coordinator, monitor *connectivity.Monitor) *Client {
	return &Client{remote: remote, coord: coord, monitor: monitor}
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.remote.ListTasks(ctx)
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	return c.remote.GetTask(ctx, id)
}

func (c *Client) CreateTask(ctx context.Context, data models.CreateTaskData) (models.Task, error) {
	if !c.monitor.Online() {
		actionID := c.coord.EnqueueCreate(ctx, data)
		now := time.Now()
		return models.Task{
			ID:          QueuedIDPrefix + actionID,
			Title:       data.Title,
			Description: data.Description,
			Status:      models.StatusTodo,
			Priority:    data.Priority,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}
	return c.remote.CreateTask(ctx, data)
}

func (c *Client) UpdateTask(ctx context.Context, id string, updates models.UpdateTaskData) (models.Task, error) {
	if !c.monitor.Online() {
		actionID := c.coord.EnqueueUpdate(ctx, id, updates)
		// The caller already applied the change optimistically; the
		// placeholder only signals "queued, keep your local copy".
		return models.Task{ID: QueuedIDPrefix + actionID, UpdatedAt: time.Now()}, nil
	}
	return c.remote.UpdateTask(ctx, id, updates)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if !c.monitor.Online() {
		c.coord.EnqueueDelete(ctx, id)
		return nil
	}
	return c.remote.DeleteTask(ctx, id)
}
