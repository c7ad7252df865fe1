package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTasks() []model.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return []model.Task{
		{
			ID: 1, Title: "Fix login", Description: "401 loop on stale token",
			Status: model.StatusInProgress, Priority: model.PriorityHigh,
			Tags:     []string{"auth", "bug"},
			Assignee: &model.UserBrief{ID: 3, FullName: "Carol D"},
			Active:   true,
			CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now,
		},
		{
			ID: 2, Title: "Write release notes",
			Status: model.StatusTodo, Priority: model.PriorityLow,
			Active:    true,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
		},
		{
			ID: 3, Title: "Deploy staging",
			Status: model.StatusDone, Priority: model.PriorityHigh,
			Active:    true,
			CreatedAt: now.Add(-30 * time.Minute), UpdatedAt: now.Add(-10 * time.Minute),
		},
	}
}

func TestUpsertAndGetTasksRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTasks(ctx, sampleTasks()))

	got, err := s.GetTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	byID := map[int64]model.Task{}
	for _, task := range got {
		byID[task.ID] = task
	}

	first := byID[1]
	assert.Equal(t, "Fix login", first.Title)
	assert.Equal(t, model.StatusInProgress, first.Status)
	assert.Equal(t, []string{"auth", "bug"}, first.Tags)
	require.NotNil(t, first.Assignee)
	assert.Equal(t, "Carol D", first.Assignee.FullName)

	assert.Nil(t, byID[2].Assignee)
}

func TestUpsertTasksReplacesExistingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tasks := sampleTasks()
	require.NoError(t, s.UpsertTasks(ctx, tasks))

	tasks[0].Title = "Fix login (reopened)"
	tasks[0].Status = model.StatusTodo
	require.NoError(t, s.UpsertTasks(ctx, tasks[:1]))

	got, err := s.GetTaskByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fix login (reopened)", got.Title)
	assert.Equal(t, model.StatusTodo, got.Status)

	all, err := s.GetTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetTasksFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTasks(ctx, sampleTasks()))

	status := model.StatusDone
	got, err := s.GetTasks(ctx, TaskFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)

	priority := model.PriorityHigh
	got, err = s.GetTasks(ctx, TaskFilter{Priority: &priority})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	query := "login"
	got, err = s.GetTasks(ctx, TaskFilter{Query: &query})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	// Description matches too.
	query = "stale token"
	got, err = s.GetTasks(ctx, TaskFilter{Query: &query})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetTasksSortAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTasks(ctx, sampleTasks()))

	got, err := s.GetTasks(ctx, TaskFilter{SortBy: "created_at", SortDesc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	got, err = s.GetTasks(ctx, TaskFilter{SortBy: "created_at", SortDesc: true, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	// Unknown sort keys fall back to updated_at instead of erroring.
	_, err = s.GetTasks(ctx, TaskFilter{SortBy: "id; DROP TABLE tasks"})
	require.NoError(t, err)
}

func TestGetTaskByIDMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetTaskByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotificationReadLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Type: "TASK_ASSIGNED", Message: "one", TaskID: 10, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Type: "COMMENT_ADDED", Message: "two", TaskID: 10, CreatedAt: now},
		{ID: 3, Type: "TASK_ASSIGNED", Message: "three", CreatedAt: now.Add(-2 * time.Hour), ReadAt: &now},
	}))

	unread, err := s.UnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	// Newest first.
	assert.Equal(t, int64(2), unread[0].ID)
	assert.Equal(t, int64(1), unread[1].ID)

	require.NoError(t, s.MarkNotificationRead(ctx, 2))
	unread, err = s.UnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, int64(1), unread[0].ID)

	// Marking an already-read or missing id is a no-op.
	require.NoError(t, s.MarkNotificationRead(ctx, 2))
	require.NoError(t, s.MarkNotificationRead(ctx, 999))

	require.NoError(t, s.MarkAllNotificationsRead(ctx))
	unread, err = s.UnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestClearWipesBothTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTasks(ctx, sampleTasks()))
	require.NoError(t, s.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "one", CreatedAt: time.Now().UTC()},
	}))

	require.NoError(t, s.Clear(ctx))

	tasks, err := s.GetTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	unread, err := s.UnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMigrationsAreIdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.UpsertTasks(context.Background(), sampleTasks()))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetTasks(context.Background(), TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
