package offline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/connectivity"
	"taskboard/internal/models"
	"taskboard/internal/queue"
	"taskboard/internal/testutil"
)

func newTestClient(t *testing.T, fake *testutil.FakeAPI) (*Client, *Coordinator, *connectivity.Monitor) {
	t.Helper()
	store := queue.NewFileStore(filepath.Join(t.TempDir(), "queue.json"))
	coord := NewCoordinator(store, fake, &testutil.RecorderNotifier{}, 3)
	monitor := connectivity.NewMonitor(nil, time.Second)
	return NewClient(fake, coord, monitor), coord, monitor
}

func TestOnlineMutationsPassThrough(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI(models.Task{ID: "1", Status: models.StatusTodo})
	client, coord, _ := newTestClient(t, fake)

	task, err := client.CreateTask(ctx, models.CreateTaskData{Title: "live", Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.False(t, IsQueuedID(task.ID))

	require.NoError(t, client.DeleteTask(ctx, "1"))
	assert.Equal(t, []string{"create:live", "delete:1"}, fake.CallLog())
	assert.Zero(t, coord.Len(ctx))
}

func TestOfflineCreateReturnsQueuedPlaceholder(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	client, coord, monitor := newTestClient(t, fake)
	monitor.SetOnline(false)

	task, err := client.CreateTask(ctx, models.CreateTaskData{
		Title:       "later",
		Description: "when back online",
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.True(t, IsQueuedID(task.ID))
	assert.Equal(t, "later", task.Title)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority)

	// Nothing reached the remote service; the action is queued instead.
	assert.Empty(t, fake.CallLog())
	require.Equal(t, 1, coord.Len(ctx))
	assert.Equal(t, models.ActionCreate, coord.Snapshot(ctx)[0].Kind)
}

func TestOfflineUpdateAndDeleteQueue(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI()
	client, coord, monitor := newTestClient(t, fake)
	monitor.SetOnline(false)

	status := models.StatusDone
	task, err := client.UpdateTask(ctx, "42", models.UpdateTaskData{Status: &status})
	require.NoError(t, err)
	assert.True(t, IsQueuedID(task.ID))

	require.NoError(t, client.DeleteTask(ctx, "42"))

	assert.Empty(t, fake.CallLog())
	snapshot := coord.Snapshot(ctx)
	require.Len(t, snapshot, 2)
	assert.Equal(t, models.ActionUpdate, snapshot[0].Kind)
	assert.Equal(t, "42", snapshot[0].TaskID())
	assert.Equal(t, models.ActionDelete, snapshot[1].Kind)
}

func TestReconnectDrainsQueue(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAPI(models.Task{ID: "42", Status: models.StatusTodo})
	client, coord, monitor := newTestClient(t, fake)
	monitor.OnOnline(func() { coord.Drain(ctx) })
	monitor.SetOnline(false)

	status := models.StatusDone
	_, err := client.UpdateTask(ctx, "42", models.UpdateTaskData{Status: &status})
	require.NoError(t, err)
	require.Equal(t, 1, coord.Len(ctx))

	monitor.SetOnline(true)

	assert.Equal(t, []string{"update:42"}, fake.CallLog())
	assert.Zero(t, coord.Len(ctx))
}
