package api

import "github.com/SEP490-G11/Project-Round/internal/model"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued credential and the user profile.
type LoginResponse struct {
	AccessToken string     `json:"accessToken"`
	User        model.User `json:"user"`
}

// RefreshResponse is the body of a successful POST /auth/refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// MessageResponse is the generic {"message": ...} envelope the server uses
// for acknowledgements and error bodies.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest is the body of POST /auth/register/request-otp.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// VerifyOTPRequest carries the 6-digit code for both OTP verification
// endpoints (registration and password reset).
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// ForgotRequest is the body of POST /auth/forgot/request-otp.
type ForgotRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password-reset flow after the OTP has
// been verified.
type ResetPasswordRequest struct {
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ChangePasswordRequest is the body of the authenticated PATCH
// /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// TaskListParams controls filtering, sorting, and pagination of the task
// list endpoint.
type TaskListParams struct {
	Page       int
	Size       int
	Query      string
	Status     model.TaskStatus
	Priority   model.TaskPriority
	AssigneeID int64
	Sort       string
}

// CreateTaskRequest is the body of POST /api/v1/tasks (admin only).
type CreateTaskRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Priority    model.TaskPriority `json:"priority"`
	DueDate     string             `json:"dueDate,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	AssigneeID  *int64             `json:"assigneeId,omitempty"`
}

// PatchTaskRequest is the body of PATCH /api/v1/tasks/{id} (admin only).
// Nil fields are left unchanged by the server.
type PatchTaskRequest struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Priority    *model.TaskPriority `json:"priority,omitempty"`
	DueDate     *string             `json:"dueDate,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
}

// AssignRequest is the body of PATCH /api/v1/tasks/{id}/assignee.
type AssignRequest struct {
	AssigneeID int64 `json:"assigneeId"`
}

// UpdateStatusRequest is the body of PATCH /api/v1/tasks/{id}/status.
type UpdateStatusRequest struct {
	Status model.TaskStatus `json:"status"`
}

// CreateSubTaskRequest is the body of POST /api/v1/tasks/{id}/subtasks.
type CreateSubTaskRequest struct {
	Title string `json:"title"`
}

// PatchSubTaskRequest is the body of PATCH
// /api/v1/tasks/{id}/subtasks/{subTaskId}. Nil fields are left unchanged.
type PatchSubTaskRequest struct {
	Title *string `json:"title,omitempty"`
	Done  *bool   `json:"done,omitempty"`
}

// CreateCommentRequest is the body of POST /api/v1/tasks/{id}/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// PushSubscriptionKeys are the encryption keys of a platform push
// subscription, base64-encoded.
type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscriptionRequest forwards a platform push subscription descriptor
// to the server.
type PushSubscriptionRequest struct {
	Endpoint string               `json:"endpoint"`
	Keys     PushSubscriptionKeys `json:"keys"`
	DeviceID string               `json:"deviceId,omitempty"`
}
