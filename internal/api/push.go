package api

import "context"

// PushAPI shapes requests for the push-subscription endpoint.
type PushAPI struct {
	client *Client
}

// NewPushAPI creates the push module over the authenticated client.
func NewPushAPI(client *Client) *PushAPI {
	return &PushAPI{client: client}
}

// Subscribe forwards a platform push subscription descriptor to the server.
func (p *PushAPI) Subscribe(ctx context.Context, req PushSubscriptionRequest) error {
	return p.client.Post(ctx, "/api/v1/push/subscribe", req, nil)
}
