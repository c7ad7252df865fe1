package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

// NotificationAPI shapes requests for the notification endpoints.
type NotificationAPI struct {
	client *Client
}

// NewNotificationAPI creates the notification module over the
// authenticated client.
func NewNotificationAPI(client *Client) *NotificationAPI {
	return &NotificationAPI{client: client}
}

// NotificationListParams controls the notification list query.
type NotificationListParams struct {
	Page       int
	Size       int
	UnreadOnly bool
}

// List fetches the user's notifications, newest first.
func (n *NotificationAPI) List(ctx context.Context, params NotificationListParams) ([]model.Notification, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	if params.Size > 0 {
		q.Set("size", strconv.Itoa(params.Size))
	}
	if params.UnreadOnly {
		q.Set("unread", "true")
	}

	var out []model.Notification
	if err := n.client.Get(ctx, "/notifications?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks a single notification as read, removing it from the
// unread view.
func (n *NotificationAPI) MarkRead(ctx context.Context, id int64) error {
	return n.client.Patch(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllRead marks every unread notification as read.
func (n *NotificationAPI) MarkAllRead(ctx context.Context) error {
	return n.client.Patch(ctx, "/notifications/read-all", nil, nil)
}
