// Package connectivity tracks whether the remote task service is reachable
// and notifies subscribers on transitions.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"taskboard/pkg/logger"
)

// Prober answers "are we online right now?". The monitor polls it.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber considers the service online when a GET of URL returns 2xx.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p *HTTPProber) Probe(ctx context.Context) bool {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Monitor holds the current online flag and a listener registry. Transitions
// come from SetOnline, either driven by Run's probe loop or set directly.
// Delivery is serialized: concurrent SetOnline callers notify listeners in
// the order the transitions were observed, so the last delivered state is
// the final state. Listeners and the OnOnline hook must not call SetOnline.
type Monitor struct {
	mu        sync.Mutex // guards state and registry
	notifyMu  sync.Mutex // serializes transition delivery
	online    bool
	nextID    int
	listeners map[int]func(bool)
	onOnline  func()

	prober   Prober
	interval time.Duration
}

// NewMonitor returns a monitor that starts optimistically online; the first
// probe corrects it if the service is unreachable.
func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	return &Monitor{
		online:    true,
		listeners: make(map[int]func(bool)),
		prober:    prober,
		interval:  interval,
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// AddListener registers fn for connectivity transitions and returns its
// unsubscribe function. Each listener sees the new state exactly once per
// transition.
func (m *Monitor) AddListener(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// OnOnline sets the hook fired once per offline-to-online transition, after
// all listeners have been notified. The coordinator wires its drain here.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = fn
}

// SetOnline records a transition. Setting the current state again is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	hook := m.onOnline
	m.mu.Unlock()

	logger.Info(context.Background(), "Connectivity changed", "online", online)
	for _, fn := range fns {
		fn(online)
	}
	if online && hook != nil {
		hook()
	}
}

// Run polls the prober until ctx is done. It performs one immediate probe
// and then one per interval.
func (m *Monitor) Run(ctx context.Context) {
	if m.prober == nil {
		return
	}
	m.SetOnline(m.prober.Probe(ctx))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(m.prober.Probe(ctx))
		}
	}
}
