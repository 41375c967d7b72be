package models

import "time"

// ActionKind selects which payload field of a QueuedAction is set.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// UpdatePayload carries a queued partial update for one task.
type UpdatePayload struct {
	ID      string         `json:"id"`
	Updates UpdateTaskData `json:"updates"`
}

// DeletePayload carries a queued delete for one task.
type DeletePayload struct {
	ID string `json:"id"`
}

// QueuedAction is one deferred mutation recorded while offline. Exactly one
// of Create, Update, Delete is non-nil, matching Kind. Once enqueued, only
// RetryCount changes; an action leaves the queue by replaying successfully
// or by hitting the retry ceiling.
type QueuedAction struct {
	ID         string          `json:"id"`
	Kind       ActionKind      `json:"kind"`
	Create     *CreateTaskData `json:"create,omitempty"`
	Update     *UpdatePayload  `json:"update,omitempty"`
	Delete     *DeletePayload  `json:"delete,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	RetryCount int             `json:"retryCount"`
}

// TaskID returns the id of the task the action targets, or "" for creates
// (the task does not exist yet).
func (a QueuedAction) TaskID() string {
	switch a.Kind {
	case ActionUpdate:
		if a.Update != nil {
			return a.Update.ID
		}
	case ActionDelete:
		if a.Delete != nil {
			return a.Delete.ID
		}
	}
	return ""
}
