package push

import "context"

// TerminalPlatform is the Platform used by the terminal client. Terminals
// have no push service, so it reports unsupported and registration is
// skipped silently.
type TerminalPlatform struct{}

func (TerminalPlatform) Supported() bool { return false }

func (TerminalPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	return PermissionDenied, nil
}

func (TerminalPlatform) Subscription(ctx context.Context) (*Subscription, error) {
	return nil, nil
}

func (TerminalPlatform) Subscribe(ctx context.Context, serverKey []byte) (*Subscription, error) {
	return nil, nil
}
