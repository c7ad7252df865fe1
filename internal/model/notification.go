package model

import "time"

// Notification is a single event surfaced to the user, either delivered
// over the realtime channel or fetched from the list endpoint. Marking it
// read removes it from the unread view.
type Notification struct {
	// ID is the server-assigned notification identifier.
	ID int64 `json:"id" db:"id"`

	// Type is the server-defined event kind (e.g. TASK_ASSIGNED).
	Type string `json:"type" db:"type"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// TaskID links the notification to the originating task, if any.
	TaskID int64 `json:"taskId,omitempty" db:"task_id"`

	// CreatedAt is when the event was produced on the server.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// ReadAt is when the user marked the notification read; nil while unread.
	ReadAt *time.Time `json:"readAt,omitempty" db:"read_at"`
}

// Unread reports whether the notification has not been marked read yet.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}
