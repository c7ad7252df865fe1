package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

// TaskAPI shapes requests for the task endpoints. It carries no business
// logic: ownership, status transitions, and permission checks are enforced
// by the server.
type TaskAPI struct {
	client *Client
}

// NewTaskAPI creates the task module over the authenticated client.
func NewTaskAPI(client *Client) *TaskAPI {
	return &TaskAPI{client: client}
}

// List fetches one page of task summaries.
func (t *TaskAPI) List(ctx context.Context, params TaskListParams) (*model.TaskPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("size", strconv.Itoa(params.Size))
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	if params.Status != "" {
		q.Set("status", string(params.Status))
	}
	if params.Priority != "" {
		q.Set("priority", string(params.Priority))
	}
	if params.AssigneeID != 0 {
		q.Set("assigneeId", strconv.FormatInt(params.AssigneeID, 10))
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}

	var page model.TaskPage
	if err := t.client.Get(ctx, "/api/v1/tasks?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Detail fetches the full aggregate for a single task: the task itself
// plus subtasks, comments, and the activity log.
func (t *TaskAPI) Detail(ctx context.Context, taskID int64) (*model.TaskDetail, error) {
	var detail model.TaskDetail
	if err := t.client.Get(ctx, taskPath(taskID), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create creates a task (admin only).
func (t *TaskAPI) Create(ctx context.Context, req CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := t.client.Post(ctx, "/api/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Patch partially updates a task (admin only).
func (t *TaskAPI) Patch(ctx context.Context, taskID int64, req PatchTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := t.client.Patch(ctx, taskPath(taskID), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Assign sets the task's assignee (admin only).
func (t *TaskAPI) Assign(ctx context.Context, taskID, assigneeID int64) (*model.Task, error) {
	var task model.Task
	err := t.client.Patch(ctx, taskPath(taskID)+"/assignee", AssignRequest{AssigneeID: assigneeID}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus transitions the task's workflow status.
func (t *TaskAPI) UpdateStatus(ctx context.Context, taskID int64, status model.TaskStatus) (*model.Task, error) {
	var task model.Task
	err := t.client.Patch(ctx, taskPath(taskID)+"/status", UpdateStatusRequest{Status: status}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task (admin only).
func (t *TaskAPI) Delete(ctx context.Context, taskID int64) error {
	return t.client.Delete(ctx, taskPath(taskID))
}

// CreateSubTask adds a checklist entry to a task.
func (t *TaskAPI) CreateSubTask(ctx context.Context, taskID int64, title string) (*model.SubTask, error) {
	var sub model.SubTask
	err := t.client.Post(ctx, taskPath(taskID)+"/subtasks", CreateSubTaskRequest{Title: title}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// PatchSubTask renames or toggles a checklist entry.
func (t *TaskAPI) PatchSubTask(
	ctx context.Context,
	taskID, subTaskID int64,
	req PatchSubTaskRequest,
) (*model.SubTask, error) {
	var sub model.SubTask
	path := fmt.Sprintf("%s/subtasks/%d", taskPath(taskID), subTaskID)
	if err := t.client.Patch(ctx, path, req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubTask removes a checklist entry.
func (t *TaskAPI) DeleteSubTask(ctx context.Context, taskID, subTaskID int64) error {
	return t.client.Delete(ctx, fmt.Sprintf("%s/subtasks/%d", taskPath(taskID), subTaskID))
}

// AddComment appends a comment to the task's discussion thread.
func (t *TaskAPI) AddComment(ctx context.Context, taskID int64, content string) (*model.Comment, error) {
	var comment model.Comment
	err := t.client.Post(ctx, taskPath(taskID)+"/comments", CreateCommentRequest{Content: content}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func taskPath(taskID int64) string {
	return fmt.Sprintf("/api/v1/tasks/%d", taskID)
}
