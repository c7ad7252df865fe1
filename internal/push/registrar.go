// Package push registers a platform push subscription with the server.
//
// Push delivery is an enhancement, not a required flow: every failure path
// here returns without surfacing an error to the user, and forwarding
// failures are only logged.
package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/SEP490-G11/Project-Round/internal/api"
)

// Permission is the outcome of a permission prompt.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Subscription is a platform push subscription descriptor.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Platform abstracts the host push surface (the browser push manager, or a
// desktop notification bridge). A host with no push capability returns
// false from Supported.
type Platform interface {
	// Supported reports whether the host can deliver push notifications.
	Supported() bool

	// RequestPermission prompts the user once and reports the outcome.
	RequestPermission(ctx context.Context) (Permission, error)

	// Subscription returns the existing subscription, or nil when none.
	Subscription(ctx context.Context) (*Subscription, error)

	// Subscribe creates a new subscription bound to the given application
	// server key.
	Subscribe(ctx context.Context, applicationServerKey []byte) (*Subscription, error)
}

// Registrar obtains a push subscription from the platform and forwards its
// descriptor to the server.
type Registrar struct {
	platform Platform
	pushAPI  *api.PushAPI
	vapidKey string
	deviceID string
	logger   *slog.Logger
}

// NewRegistrar creates a registrar over the given platform. The vapidKey
// is the server application key, base64url-encoded without padding.
func NewRegistrar(platform Platform, pushAPI *api.PushAPI, vapidKey, deviceID string, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		platform: platform,
		pushAPI:  pushAPI,
		vapidKey: vapidKey,
		deviceID: deviceID,
		logger:   logger,
	}
}

// Register requests permission, obtains a subscription, and forwards it to
// the server. It returns without effect when the platform lacks push
// capability or the user denies permission, and never retries a denial.
func (r *Registrar) Register(ctx context.Context) {
	if r.platform == nil || !r.platform.Supported() {
		r.logger.Debug("push not supported on this platform, skipping")
		return
	}

	permission, err := r.platform.RequestPermission(ctx)
	if err != nil {
		r.logger.Warn("push permission request failed", "error", err)
		return
	}
	if permission != PermissionGranted {
		r.logger.Debug("push permission denied, skipping")
		return
	}

	sub, err := r.platform.Subscription(ctx)
	if err != nil {
		r.logger.Warn("reading existing push subscription failed", "error", err)
		return
	}
	if sub == nil {
		key, err := decodeServerKey(r.vapidKey)
		if err != nil {
			r.logger.Warn("invalid application server key", "error", err)
			return
		}
		sub, err = r.platform.Subscribe(ctx, key)
		if err != nil {
			r.logger.Warn("creating push subscription failed", "error", err)
			return
		}
	}

	err = r.pushAPI.Subscribe(ctx, api.PushSubscriptionRequest{
		Endpoint: sub.Endpoint,
		Keys: api.PushSubscriptionKeys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
		DeviceID: r.deviceID,
	})
	if err != nil {
		// Forwarding failure is swallowed: push is an enhancement.
		r.logger.Warn("forwarding push subscription failed", "error", err)
		return
	}

	r.logger.Info("push subscription registered")
}

// decodeServerKey decodes the base64url application server key, accepting
// both padded and unpadded input.
func decodeServerKey(key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("empty application server key")
	}
	if raw, err := base64.RawURLEncoding.DecodeString(key); err == nil {
		return raw, nil
	}
	raw, err := base64.URLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decoding application server key: %w", err)
	}
	return raw, nil
}
