package api

import "context"

// HealthAPI checks server reachability.
type HealthAPI struct {
	client *Client
}

// NewHealthAPI creates the health module over the authenticated client.
func NewHealthAPI(client *Client) *HealthAPI {
	return &HealthAPI{client: client}
}

// Check pings the health endpoint.
func (h *HealthAPI) Check(ctx context.Context) error {
	return h.client.Get(ctx, "/health", nil)
}
