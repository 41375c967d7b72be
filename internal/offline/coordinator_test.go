package offline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/queue"
	"taskboard/internal/testutil"
)

func newTestCoordinator(t *testing.T, remote api.TaskAPI) (*Coordinator, *testutil.RecorderNotifier) {
	t.Helper()
	store := queue.NewFileStore(filepath.Join(t.TempDir(), "queue.json"))
	recorder := &testutil.RecorderNotifier{}
	return NewCoordinator(store, remote, recorder, 3), recorder
}

func TestDrainReplaysInEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI(models.Task{ID: "7", Status: models.StatusTodo})
	coord, _ := newTestCoordinator(t, fake)

	status := models.StatusDone
	coord.EnqueueCreate(ctx, models.CreateTaskData{Title: "first", Priority: models.PriorityLow})
	coord.EnqueueUpdate(ctx, "7", models.UpdateTaskData{Status: &status})
	coord.EnqueueDelete(ctx, "7")
	require.Equal(t, 3, coord.Len(ctx))

	coord.Drain(ctx)

	assert.Equal(t, []string{"create:first", "update:7", "delete:7"}, fake.CallLog())
	assert.Zero(t, coord.Len(ctx))
}

func TestDrainRetryCeiling(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	fake.UpdateErr = &api.ServerError{Status: 500}
	coord, recorder := newTestCoordinator(t, fake)

	title := "renamed"
	coord.EnqueueUpdate(ctx, "42", models.UpdateTaskData{Title: &title})

	coord.Drain(ctx)
	require.Equal(t, 1, coord.Len(ctx))
	assert.Equal(t, 1, coord.Snapshot(ctx)[0].RetryCount)

	coord.Drain(ctx)
	require.Equal(t, 1, coord.Len(ctx))
	assert.Equal(t, 2, coord.Snapshot(ctx)[0].RetryCount)

	// Third failure hits the ceiling: dropped, surfaced, never retried again.
	coord.Drain(ctx)
	assert.Zero(t, coord.Len(ctx))
	assert.Len(t, fake.CallLog(), 3)

	coord.Drain(ctx)
	assert.Len(t, fake.CallLog(), 3)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Contains(t, last.Message, "dropped")
}

func TestDrainIsReentrantSafe(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	fake.Entered = make(chan struct{})
	fake.Release = make(chan struct{})
	coord, _ := newTestCoordinator(t, fake)

	coord.EnqueueCreate(ctx, models.CreateTaskData{Title: "once", Priority: models.PriorityMedium})

	done := make(chan struct{})
	go func() {
		coord.Drain(ctx)
		close(done)
	}()
	<-fake.Entered // first drain is mid-dispatch

	coord.Drain(ctx) // concurrent call must be a no-op

	fake.Release <- struct{}{}
	<-done

	assert.Equal(t, []string{"create:once"}, fake.CallLog())
	assert.Zero(t, coord.Len(ctx))
}

func TestDrainContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	fake.UpdateErr = &api.ServerError{Status: 500}
	coord, _ := newTestCoordinator(t, fake)

	title := "stuck"
	coord.EnqueueUpdate(ctx, "42", models.UpdateTaskData{Title: &title})
	coord.EnqueueCreate(ctx, models.CreateTaskData{Title: "fine", Priority: models.PriorityLow})

	coord.Drain(ctx)

	assert.Equal(t, []string{"update:42", "create:fine"}, fake.CallLog())
	snapshot := coord.Snapshot(ctx)
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.ActionUpdate, snapshot[0].Kind)
	assert.Equal(t, 1, snapshot[0].RetryCount)
}

func TestEnqueueDuringDrainSurvives(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	fake.Entered = make(chan struct{})
	fake.Release = make(chan struct{})
	coord, _ := newTestCoordinator(t, fake)

	coord.EnqueueCreate(ctx, models.CreateTaskData{Title: "early", Priority: models.PriorityLow})

	done := make(chan struct{})
	go func() {
		coord.Drain(ctx)
		close(done)
	}()
	<-fake.Entered

	// Arrives while the drain is running; the drain's fresh re-read on
	// removal must not clobber it.
	coord.EnqueueDelete(ctx, "9")

	fake.Release <- struct{}{}
	<-done

	snapshot := coord.Snapshot(ctx)
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.ActionDelete, snapshot[0].Kind)
}

// gateStore is an in-memory Store that parks the Nth Save between its call
// and its effect, exposing the load-modify-save window of a queue write.
type gateStore struct {
	mu      sync.Mutex
	actions []models.QueuedAction
	saves   int
	gateOn  int
	entered chan struct{}
	release chan struct{}
}

func (s *gateStore) Load(ctx context.Context) []models.QueuedAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QueuedAction, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *gateStore) Save(ctx context.Context, actions []models.QueuedAction) {
	s.mu.Lock()
	s.saves++
	gated := s.saves == s.gateOn
	s.mu.Unlock()
	if gated {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	s.actions = make([]models.QueuedAction, len(actions))
	copy(s.actions, actions)
	s.mu.Unlock()
}

func TestQueueWritesAreSerialized(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	// Save #1 is the setup enqueue; #2 is the drain removing the replayed
	// action, which gets parked mid-write.
	store := &gateStore{gateOn: 2, entered: make(chan struct{}), release: make(chan struct{})}
	coord := NewCoordinator(store, fake, &testutil.RecorderNotifier{}, 3)

	coord.EnqueueCreate(ctx, models.CreateTaskData{Title: "replayed", Priority: models.PriorityLow})

	drained := make(chan struct{})
	go func() {
		coord.Drain(ctx)
		close(drained)
	}()
	<-store.entered // drain is mid-removal, its store write unfinished

	enqueued := make(chan struct{})
	go func() {
		coord.EnqueueDelete(ctx, "9")
		close(enqueued)
	}()

	// The enqueue must wait for the in-progress queue write; interleaving
	// its own load-modify-save would let the drain's stale Save drop it.
	select {
	case <-enqueued:
		t.Fatal("enqueue interleaved with an in-progress queue write")
	case <-time.After(100 * time.Millisecond):
	}

	store.release <- struct{}{}
	<-drained
	<-enqueued

	snapshot := coord.Snapshot(ctx)
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.ActionDelete, snapshot[0].Kind)
	assert.Equal(t, "9", snapshot[0].TaskID())
}

func TestQueuedUpdateReplayScenario(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI(models.Task{ID: "42", Title: "Design system", Status: models.StatusInProgress})
	coord, _ := newTestCoordinator(t, fake)

	status := models.StatusDone
	coord.EnqueueUpdate(ctx, "42", models.UpdateTaskData{Status: &status})
	require.Equal(t, 1, coord.Len(ctx))

	// Reconnect.
	coord.Drain(ctx)

	assert.Equal(t, []string{"update:42"}, fake.CallLog())
	assert.Zero(t, coord.Len(ctx))
	task, err := fake.GetTask(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)
	assert.False(t, task.UpdatedAt.IsZero())
}
