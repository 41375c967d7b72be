// Package offline defers mutations made while disconnected and replays them
// when connectivity returns.
package offline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/queue"
	"taskboard/pkg/logger"
)

// DefaultRetryLimit is how many failed replay attempts an action gets
// before it is dropped.
const DefaultRetryLimit = 3

// Coordinator owns the durable queue. Mutations attempted while offline are
// enqueued; Drain replays them in FIFO order against the remote client. The
// store is the single source of truth and is re-read before every mutating
// operation on it, so drains interleave safely with new enqueues. Every
// load-modify-save on the store runs under mu: enqueues arrive from the UI
// goroutine while drains run from the connectivity monitor's, and two
// overlapping writes would let the later Save clobber the earlier one.
type Coordinator struct {
	store      queue.Store
	remote     api.TaskAPI
	notifier   notify.Notifier
	retryLimit int
	draining   atomic.Bool

	mu sync.Mutex // serializes store writes
}

// NewCoordinator wires a coordinator to its store, replay target and
// notifier. retryLimit <= 0 selects DefaultRetryLimit.
func NewCoordinator(store queue.Store, remote api.TaskAPI, notifier notify.Notifier, retryLimit int) *Coordinator {
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	return &Coordinator{
		store:      store,
		remote:     remote,
		notifier:   notifier,
		retryLimit: retryLimit,
	}
}

// EnqueueCreate records a deferred create and returns the action id.
func (c *Coordinator) EnqueueCreate(ctx context.Context, data models.CreateTaskData) string {
	return c.enqueue(ctx, models.QueuedAction{
		Kind:   models.ActionCreate,
		Create: &data,
	})
}

// EnqueueUpdate records a deferred partial update and returns the action id.
func (c *Coordinator) EnqueueUpdate(ctx context.Context, id string, updates models.UpdateTaskData) string {
	return c.enqueue(ctx, models.QueuedAction{
		Kind:   models.ActionUpdate,
		Update: &models.UpdatePayload{ID: id, Updates: updates},
	})
}

// EnqueueDelete records a deferred delete and returns the action id.
func (c *Coordinator) EnqueueDelete(ctx context.Context, id string) string {
	return c.enqueue(ctx, models.QueuedAction{
		Kind:   models.ActionDelete,
		Delete: &models.DeletePayload{ID: id},
	})
}

func (c *Coordinator) enqueue(ctx context.Context, action models.QueuedAction) string {
	action.ID = uuid.New().String()
	action.EnqueuedAt = time.Now()
	action.RetryCount = 0

	c.mu.Lock()
	defer c.mu.Unlock()
	actions := c.store.Load(ctx)
	actions = append(actions, action)
	c.store.Save(ctx, actions)
	logger.Info(ctx, "Mutation queued for replay", "action_id", action.ID, "kind", action.Kind, "queue_len", len(actions))
	return action.ID
}

// Drain replays the queued actions in FIFO order. It is safe to call on
// every reconnect: at most one drain runs at a time, a concurrent call is a
// no-op. One action failing does not stop the rest of the batch.
func (c *Coordinator) Drain(ctx context.Context) {
	if !c.draining.CompareAndSwap(false, true) {
		return
	}
	defer c.draining.Store(false)

	snapshot := c.store.Load(ctx)
	if len(snapshot) == 0 {
		return
	}
	logger.Info(ctx, "Draining offline queue", "queue_len", len(snapshot))
	for _, action := range snapshot {
		if err := c.dispatch(ctx, action); err != nil {
			logger.Warn(ctx, "Queued action replay failed", "action_id", action.ID, "kind", action.Kind, "error", err)
			c.recordFailure(ctx, action.ID)
			continue
		}
		c.remove(ctx, action.ID)
	}
}

func (c *Coordinator) dispatch(ctx context.Context, action models.QueuedAction) error {
	switch action.Kind {
	case models.ActionCreate:
		if action.Create == nil {
			return fmt.Errorf("queued create %s has no payload", action.ID)
		}
		_, err := c.remote.CreateTask(ctx, *action.Create)
		return err
	case models.ActionUpdate:
		if action.Update == nil {
			return fmt.Errorf("queued update %s has no payload", action.ID)
		}
		_, err := c.remote.UpdateTask(ctx, action.Update.ID, action.Update.Updates)
		return err
	case models.ActionDelete:
		if action.Delete == nil {
			return fmt.Errorf("queued delete %s has no payload", action.ID)
		}
		return c.remote.DeleteTask(ctx, action.Delete.ID)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// remove drops the action by id against a fresh read of the store, so
// enqueues that happened during the dispatch are not clobbered.
func (c *Coordinator) remove(ctx context.Context, actionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	actions := c.store.Load(ctx)
	kept := actions[:0]
	for _, a := range actions {
		if a.ID != actionID {
			kept = append(kept, a)
		}
	}
	c.store.Save(ctx, kept)
}

// recordFailure bumps the action's retry count, dropping it once the count
// reaches the ceiling. Dropped actions are the only replay failures the
// user ever sees.
func (c *Coordinator) recordFailure(ctx context.Context, actionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	actions := c.store.Load(ctx)
	for i := range actions {
		if actions[i].ID != actionID {
			continue
		}
		actions[i].RetryCount++
		if actions[i].RetryCount >= c.retryLimit {
			dropped := actions[i]
			actions = append(actions[:i], actions[i+1:]...)
			c.store.Save(ctx, actions)
			logger.Error(ctx, "Queued action dropped after retry limit", "action_id", dropped.ID, "kind", dropped.Kind, "retries", dropped.RetryCount)
			if c.notifier != nil {
				c.notifier.Notify(ctx, notify.Notification{
					Message: fmt.Sprintf("A queued %s could not be synced and was dropped", dropped.Kind),
					Level:   notify.LevelError,
				})
			}
			return
		}
		c.store.Save(ctx, actions)
		return
	}
}

// Snapshot returns a copy of the queued actions in replay order.
func (c *Coordinator) Snapshot(ctx context.Context) []models.QueuedAction {
	actions := c.store.Load(ctx)
	out := make([]models.QueuedAction, len(actions))
	copy(out, actions)
	return out
}

// Len returns the number of queued actions.
func (c *Coordinator) Len(ctx context.Context) int {
	return len(c.store.Load(ctx))
}
