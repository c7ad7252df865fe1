package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/session"
)

// fakePlatform scripts the push surface for a test.
type fakePlatform struct {
	supported  bool
	permission Permission
	permErr    error
	existing   *Subscription
	created    *Subscription

	permissionAsks int
	subscribeCalls int
	gotKey         []byte
}

func (f *fakePlatform) Supported() bool { return f.supported }

func (f *fakePlatform) RequestPermission(ctx context.Context) (Permission, error) {
	f.permissionAsks++
	return f.permission, f.permErr
}

func (f *fakePlatform) Subscription(ctx context.Context) (*Subscription, error) {
	return f.existing, nil
}

func (f *fakePlatform) Subscribe(ctx context.Context, key []byte) (*Subscription, error) {
	f.subscribeCalls++
	f.gotKey = key
	return f.created, nil
}

// newPushServer records subscription forwards and returns the requests seen.
func newPushServer(t *testing.T, status int) (*api.PushAPI, *[]api.PushSubscriptionRequest) {
	t.Helper()
	var seen []api.PushSubscriptionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.PushSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	sess := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, sess.SetToken("T1"))
	return api.NewPushAPI(api.NewClient(srv.URL, sess)), &seen
}

func testKey(t *testing.T) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte{0x04, 0xAA, 0xBB, 0xCC})
}

func TestRegisterForwardsNewSubscription(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusCreated)
	platform := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		created:    &Subscription{Endpoint: "https://push.example/e1", P256dh: "p", Auth: "a"},
	}

	r := NewRegistrar(platform, pushAPI, testKey(t), "device-1", nil)
	r.Register(context.Background())

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "https://push.example/e1", got.Endpoint)
	assert.Equal(t, "p", got.Keys.P256dh)
	assert.Equal(t, "a", got.Keys.Auth)
	assert.Equal(t, "device-1", got.DeviceID)

	assert.Equal(t, 1, platform.subscribeCalls)
	assert.Equal(t, []byte{0x04, 0xAA, 0xBB, 0xCC}, platform.gotKey)
}

func TestRegisterReusesExistingSubscription(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusOK)
	platform := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		existing:   &Subscription{Endpoint: "https://push.example/old", P256dh: "p", Auth: "a"},
	}

	r := NewRegistrar(platform, pushAPI, testKey(t), "device-1", nil)
	r.Register(context.Background())

	require.Len(t, *seen, 1)
	assert.Equal(t, "https://push.example/old", (*seen)[0].Endpoint)
	assert.Zero(t, platform.subscribeCalls)
}

func TestRegisterSkipsUnsupportedPlatform(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusOK)
	platform := &fakePlatform{supported: false}

	r := NewRegistrar(platform, pushAPI, testKey(t), "device-1", nil)
	r.Register(context.Background())

	assert.Empty(t, *seen)
	assert.Zero(t, platform.permissionAsks)
}

func TestRegisterStopsOnDeniedPermission(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusOK)
	platform := &fakePlatform{supported: true, permission: PermissionDenied}

	r := NewRegistrar(platform, pushAPI, testKey(t), "device-1", nil)
	r.Register(context.Background())

	assert.Empty(t, *seen)
	assert.Equal(t, 1, platform.permissionAsks)
	assert.Zero(t, platform.subscribeCalls)
}

func TestRegisterSwallowsServerRejection(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusInternalServerError)
	platform := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		created:    &Subscription{Endpoint: "https://push.example/e1", P256dh: "p", Auth: "a"},
	}

	r := NewRegistrar(platform, pushAPI, testKey(t), "device-1", nil)
	// Must not panic or surface the failure.
	r.Register(context.Background())

	assert.Len(t, *seen, 1)
}

func TestRegisterSkipsOnInvalidServerKey(t *testing.T) {
	pushAPI, seen := newPushServer(t, http.StatusOK)
	platform := &fakePlatform{supported: true, permission: PermissionGranted}

	r := NewRegistrar(platform, pushAPI, "!!not-base64!!", "device-1", nil)
	r.Register(context.Background())

	assert.Empty(t, *seen)
	assert.Zero(t, platform.subscribeCalls)
}

func TestDecodeServerKeyAcceptsPaddedInput(t *testing.T) {
	raw := []byte{0x04, 0x01, 0x02}
	padded := base64.URLEncoding.EncodeToString(raw)

	got, err := decodeServerKey(padded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decodeServerKey("")
	assert.Error(t, err)
}

func TestTerminalPlatformReportsUnsupported(t *testing.T) {
	assert.False(t, TerminalPlatform{}.Supported())
}
