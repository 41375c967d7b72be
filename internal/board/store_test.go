package board

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/api"
	"taskboard/internal/connectivity"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/offline"
	"taskboard/internal/queue"
	"taskboard/internal/testutil"
)

func seedTasks() []models.Task {
	return []models.Task{
		{ID: "1", Title: "Wire nav", Status: models.StatusTodo, Priority: models.PriorityMedium},
		{ID: "2", Title: "Design system", Status: models.StatusInProgress, Priority: models.PriorityHigh},
	}
}

func newTestStore(t *testing.T, fake *testutil.FakeAPI) (*Store, *testutil.RecorderNotifier) {
	t.Helper()
	recorder := &testutil.RecorderNotifier{}
	store := NewStore(fake, recorder, time.Second)
	require.NoError(t, store.Load(context.Background()))
	return store, recorder
}

func TestMoveAppliesOptimistically(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	fake.Entered = make(chan struct{})
	fake.Release = make(chan struct{})
	store, _ := newTestStore(t, fake)

	done := make(chan error)
	go func() {
		done <- store.Move(context.Background(), "1", models.StatusDone)
	}()
	<-fake.Entered

	// The column changed before the server answered.
	task, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusDone, task.Status)

	fake.Release <- struct{}{}
	require.NoError(t, <-done)
}

func TestMoveRollsBackOnFailure(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	fake.UpdateErr = &api.ServerError{Status: 500}
	store, recorder := newTestStore(t, fake)

	err := store.Move(context.Background(), "1", models.StatusDone)
	require.Error(t, err)

	task, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusTodo, task.Status)

	// Rollback and notification arrive together, never one without the other.
	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Equal(t, "Failed to move task", last.Message)
}

func TestMoveOffersUndo(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	store, recorder := newTestStore(t, fake)

	require.NoError(t, store.Move(context.Background(), "1", models.StatusInProgress))

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Task moved to in progress", last.Message)
	require.NotNil(t, last.Action)
	assert.Equal(t, "Undo", last.Action.Label)
	assert.Equal(t, time.Second, last.Duration)

	// Invoking Undo issues a new mutation restoring the prior column.
	last.Action.Fn()
	task, _ := store.Get("1")
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, []string{"list", "update:1", "update:1"}, fake.CallLog())
}

func TestUndoFailureReloadsFromRemote(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	store, recorder := newTestStore(t, fake)

	require.NoError(t, store.Move(context.Background(), "1", models.StatusInProgress))

	fake.UpdateErr = &api.ServerError{Status: 500}
	err := store.Undo(context.Background(), "1", models.StatusTodo)
	require.Error(t, err)

	// Reconciliation is a reload, not a second local patch: the store shows
	// the server's state (the confirmed move), not a guessed rollback.
	assert.Equal(t, []string{"list", "update:1", "update:1", "list"}, fake.CallLog())
	task, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, task.Status)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Failed to undo move", last.Message)
}

func TestCreateFailureReportsWithoutLocalState(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	fake.CreateErr = &api.ServerError{Status: 500}
	store, recorder := newTestStore(t, fake)

	_, err := store.Create(context.Background(), models.CreateTaskData{Title: "doomed", Priority: models.PriorityLow})
	require.Error(t, err)

	// Nothing to revert; the task never entered local state.
	assert.Len(t, store.Tasks(), 2)
	last, _ := recorder.Last()
	assert.Equal(t, "Failed to create task", last.Message)
}

func TestUpdateRollsBackToPriorTask(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	fake.UpdateErr = &api.ServerError{Status: 500}
	store, _ := newTestStore(t, fake)

	title := "renamed"
	err := store.Update(context.Background(), "2", models.UpdateTaskData{Title: &title})
	require.Error(t, err)

	task, _ := store.Get("2")
	assert.Equal(t, "Design system", task.Title)
}

func TestDeleteReinsertsOnFailure(t *testing.T) {
	fake := testutil.NewFakeAPI(seedTasks()...)
	fake.DeleteErr = &api.ServerError{Status: 500}
	store, _ := newTestStore(t, fake)

	err := store.Delete(context.Background(), "1")
	require.Error(t, err)

	_, ok := store.Get("1")
	assert.True(t, ok)
	assert.Len(t, store.Tasks(), 2)
}

func TestOfflineMutationsStayAppliedAndMarkedQueued(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI(seedTasks()...)
	recorder := &testutil.RecorderNotifier{}
	monitor := connectivity.NewMonitor(nil, time.Second)
	coord := offline.NewCoordinator(queue.NewFileStore(filepath.Join(t.TempDir(), "queue.json")), fake, recorder, 3)
	store := NewStore(offline.NewClient(fake, coord, monitor), recorder, time.Second)
	require.NoError(t, store.Load(ctx))

	monitor.SetOnline(false)

	// An offline move is confirmed-but-pending: applied locally, never
	// rolled back, visibly queued.
	require.NoError(t, store.Move(ctx, "1", models.StatusDone))
	task, _ := store.Get("1")
	assert.Equal(t, models.StatusDone, task.Status)
	assert.True(t, store.Queued("1"))
	assert.Equal(t, 1, coord.Len(ctx))

	created, err := store.Create(ctx, models.CreateTaskData{Title: "offline add", Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.True(t, offline.IsQueuedID(created.ID))
	assert.True(t, store.Queued(created.ID))
	assert.Equal(t, 2, coord.Len(ctx))
}
