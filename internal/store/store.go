// Package store is the local read-mostly snapshot cache.
//
// The server owns every entity; this cache only holds the last fetched
// snapshots so the task list can render offline and the unread badge
// survives restarts. It is never treated as authoritative: every mutation
// goes to the server and triggers a re-fetch.
package store

import (
	"context"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for cached task
// queries.
type TaskFilter struct {
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	Query    *string
	SortBy   string // "updated_at", "created_at", "due_date", "priority", "title"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store defines the persistence interface for cached tasks and
// notifications.
type Store interface {
	// === Task snapshots ===

	UpsertTasks(ctx context.Context, tasks []model.Task) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)

	// === Notifications ===

	UpsertNotifications(ctx context.Context, ns []model.Notification) error
	UnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error

	// Clear drops all cached rows. Called on logout so one account's
	// snapshots never leak into the next session.
	Clear(ctx context.Context) error
}
