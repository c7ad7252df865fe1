package api

import (
	"context"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

// UserAPI shapes requests for the user endpoints.
type UserAPI struct {
	client *Client
}

// NewUserAPI creates the user module over the authenticated client.
func NewUserAPI(client *Client) *UserAPI {
	return &UserAPI{client: client}
}

// List fetches all users for assignee lookup.
func (u *UserAPI) List(ctx context.Context) ([]model.UserBrief, error) {
	var out []model.UserBrief
	if err := u.client.Get(ctx, "/api/v1/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}
