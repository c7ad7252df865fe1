package model

import "time"

// TaskStatus is the workflow state of a task as reported by the server.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// TaskPriority is the server-defined priority level of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// Task is a read-mostly snapshot of a server-owned task. The client never
// treats it as authoritative; every mutation triggers a re-fetch.
type Task struct {
	// ID is the server-assigned task identifier.
	ID int64 `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body text.
	Description string `json:"description,omitempty" db:"description"`

	// Status is the workflow state (use Status* constants).
	Status TaskStatus `json:"status" db:"status"`

	// Priority is the priority level (use Priority* constants).
	Priority TaskPriority `json:"priority" db:"priority"`

	// DueDate is the optional due date in yyyy-MM-dd form.
	DueDate string `json:"dueDate,omitempty" db:"due_date"`

	// Tags are free-form labels attached to the task.
	Tags []string `json:"tags,omitempty" db:"-"`

	// Assignee is the user the task is assigned to, if any.
	Assignee *UserBrief `json:"assignee,omitempty" db:"-"`

	// Active reports whether the task is soft-deleted on the server.
	Active bool `json:"active" db:"active"`

	// CreatedAt is when the task was created on the server.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is when the task was last modified on the server.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SubTask is a checklist entry belonging to a task.
type SubTask struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a single discussion entry on a task.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    UserBrief `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskLog is one activity-log entry recording a field change on a task.
type TaskLog struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	FieldName string    `json:"fieldName"`
	OldValue  string    `json:"oldValue,omitempty"`
	NewValue  string    `json:"newValue,omitempty"`
	Actor     UserBrief `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskDetail is the aggregate returned by the task detail endpoint.
type TaskDetail struct {
	Task     Task      `json:"task"`
	SubTasks []SubTask `json:"subtasks"`
	Comments []Comment `json:"comments"`
	Logs     []TaskLog `json:"logs"`
}

// TaskPage is one page of task summaries from the list endpoint.
type TaskPage struct {
	Content       []Task `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}
