package store_test

import (
	"context"
	"testing"

	"omnitask/backend/internal/models"
	"omnitask/backend/internal/storage"
	"omnitask/backend/internal/store"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*store.TaskStore, *storage.MemoryStorage) {
	mem := storage.NewMemoryStorage()
	s := store.New(mem)
	require.NoError(t, s.Hydrate(context.Background()))
	return s, mem
}

func TestCreate_Defaults(t *testing.T) {
	s, _ := newTestStore(t)

	task, err := s.Create(context.Background(), store.CreateParams{
		Title:    "Buy milk",
		Priority: models.PriorityMedium,
		Category: "Personal",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusTodo, task.Status)
	assert.False(t, task.IsFavorite)
	assert.Empty(t, task.Subtasks)
	assert.Empty(t, task.OrderStatus)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreate_EmptyTitleRejected(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(context.Background(), store.CreateParams{Title: "   "})
	assert.ErrorIs(t, err, store.ErrEmptyTitle)
	assert.Empty(t, s.Tasks())
}

func TestCreate_IDsAreUnique(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 50; i++ {
		task, err := s.Create(ctx, store.CreateParams{Title: "task"})
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestCreate_PrependsMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, _ := s.Create(ctx, store.CreateParams{Title: "first"})
	second, _ := s.Create(ctx, store.CreateParams{Title: "second"})

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestCreate_OrderGetsPendingStatus(t *testing.T) {
	s, _ := newTestStore(t)

	task, err := s.Create(context.Background(), store.CreateParams{Title: "New monitor", IsOrder: true})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, task.OrderStatus)
}

func TestUpdate_PreservesOrderStatusAcrossUnrelatedEdits(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "New monitor", IsOrder: true})
	require.True(t, s.SetOrderStatus(ctx, task.ID, models.OrderShipped))

	updated, ok := s.Update(ctx, task.ID, store.UpdateFields{
		Title:    "New 4K monitor",
		Priority: models.PriorityHigh,
		IsOrder:  true,
	})
	require.True(t, ok)
	assert.Equal(t, models.OrderShipped, updated.OrderStatus)
	assert.Equal(t, "New 4K monitor", updated.Title)
}

func TestUpdate_TransitionIntoOrderInitializesPending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Maybe buy later"})

	updated, ok := s.Update(ctx, task.ID, store.UpdateFields{Title: "Buy it", IsOrder: true})
	require.True(t, ok)
	assert.Equal(t, models.OrderPending, updated.OrderStatus)
}

func TestUpdate_TransitionOutOfOrderClearsStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "New monitor", IsOrder: true})
	require.True(t, s.SetOrderStatus(ctx, task.ID, models.OrderShipped))

	updated, ok := s.Update(ctx, task.ID, store.UpdateFields{Title: "Keep as a note", IsOrder: false})
	require.True(t, ok)
	assert.Empty(t, updated.OrderStatus)

	// The live store, not just a reload, must hold the cleared value.
	got, found := s.Get(task.ID)
	require.True(t, found)
	assert.False(t, got.IsOrder)
	assert.Empty(t, got.OrderStatus)
}

func TestUpdate_UnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.Update(context.Background(), uuid.Must(uuid.NewV4()), store.UpdateFields{Title: "ghost"})
	assert.False(t, ok)
}

func TestDelete_RemovesTaskAndSubtasks(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Plan trip"})
	s.AppendSubtasks(ctx, task.ID, []string{"book flights", "book hotel"})

	assert.True(t, s.Delete(ctx, task.ID))
	assert.Empty(t, s.Tasks())
	assert.False(t, s.Delete(ctx, task.ID), "second delete should be a no-op")
}

func TestToggleComplete_FlipsBetweenDoneAndTodo(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Buy milk"})
	require.True(t, s.SetStatus(ctx, task.ID, models.StatusInProgress))

	done, ok := s.ToggleComplete(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusDone, done.Status)

	back, ok := s.ToggleComplete(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusTodo, back.Status, "toggle must go straight to todo, not in-progress")
}

func TestSetOrderStatus_AnyTransitionAllowed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "New monitor", IsOrder: true})

	require.True(t, s.SetOrderStatus(ctx, task.ID, models.OrderDelivered))
	require.True(t, s.SetOrderStatus(ctx, task.ID, models.OrderPending))

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.OrderPending, got.OrderStatus)
}

func TestToggleFavorite_TwiceIsIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Buy milk"})

	once, ok := s.ToggleFavorite(ctx, task.ID)
	require.True(t, ok)
	assert.True(t, once.IsFavorite)

	twice, ok := s.ToggleFavorite(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, task.IsFavorite, twice.IsFavorite)
}

func TestToggleSubtask_TwiceIsIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Plan trip"})
	withSubs, ok := s.AppendSubtasks(ctx, task.ID, []string{"book flights"})
	require.True(t, ok)
	subID := withSubs.Subtasks[0].ID

	once, ok := s.ToggleSubtask(ctx, task.ID, subID)
	require.True(t, ok)
	assert.True(t, once.Subtasks[0].Completed)

	twice, ok := s.ToggleSubtask(ctx, task.ID, subID)
	require.True(t, ok)
	assert.False(t, twice.Subtasks[0].Completed)
}

func TestPromote_ClearsWishlistFlag(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Dream desk", IsWishlist: true})

	promoted, ok := s.Promote(ctx, task.ID)
	require.True(t, ok)
	assert.False(t, promoted.IsWishlist)
}

func TestAppendSubtasks_AppendsAfterExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Plan trip"})
	s.AppendSubtasks(ctx, task.ID, []string{"existing"})

	updated, ok := s.AppendSubtasks(ctx, task.ID, []string{"a", "b"})
	require.True(t, ok)
	require.Len(t, updated.Subtasks, 3)
	assert.Equal(t, "existing", updated.Subtasks[0].Title)
	assert.Equal(t, "a", updated.Subtasks[1].Title)
	assert.Equal(t, "b", updated.Subtasks[2].Title)
	assert.False(t, updated.Subtasks[1].Completed)
	assert.False(t, updated.Subtasks[2].Completed)
}

func TestMutations_FlushToStorage(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	task, _ := s.Create(ctx, store.CreateParams{Title: "Buy milk"})
	s.ToggleFavorite(ctx, task.ID)

	persisted, err := mem.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.True(t, persisted[0].IsFavorite)

	// A fresh store hydrated from the same storage sees the same list.
	reloaded := store.New(mem)
	require.NoError(t, reloaded.Hydrate(ctx))
	require.Len(t, reloaded.Tasks(), 1)
	assert.Equal(t, task.ID, reloaded.Tasks()[0].ID)
}

type failingStorage struct {
	storage.MemoryStorage
}

func (f *failingStorage) Save(ctx context.Context, tasks []models.Task) error {
	return storage.ErrUnavailable
}

func TestMutations_SurviveFlushFailure(t *testing.T) {
	s := store.New(&failingStorage{})

	task, err := s.Create(context.Background(), store.CreateParams{Title: "Buy milk"})
	require.NoError(t, err, "a flush failure must not surface as a mutation failure")
	assert.Equal(t, "Buy milk", task.Title)
	assert.Len(t, s.Tasks(), 1)
}
