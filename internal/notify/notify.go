// Package notify carries short-lived user-facing notifications (the toast
// layer of the UI) from the board and the offline queue to whatever front
// end is listening.
package notify

import (
	"context"
	"sync"
	"time"

	"taskboard/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Action is an optional one-shot action attached to a notification, e.g.
// the Undo offered after a successful move.
type Action struct {
	Label string
	Fn    func()
}

// Notification is a single transient message. Duration is how long the
// front end should keep it (and its Action) available.
type Notification struct {
	Message  string
	Level    Level
	Action   *Action
	Duration time.Duration
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Dispatcher fans notifications out to registered listeners. With no
// listeners it falls back to logging, so nothing is silently lost.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Notification)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[int]func(Notification))}
}

// AddListener registers fn and returns its unsubscribe function.
func (d *Dispatcher) AddListener(fn func(Notification)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	d.mu.Lock()
	fns := make([]func(Notification), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	if len(fns) == 0 {
		switch n.Level {
		case LevelError:
			logger.Error(ctx, n.Message)
		default:
			logger.Info(ctx, n.Message)
		}
		return
	}
	for _, fn := range fns {
		fn(n)
	}
}
