// Package realtime maintains the persistent notification connection to the
// task API server.
//
// The channel is an explicitly owned resource: the component composing the
// application creates one instance, connects it after login, and
// disconnects it on logout. The single-instance constraint is enforced by
// ownership, not by package-level state.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/session"
)

// State is the lifecycle state of the channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Subscribed
)

// userQueue is the per-authenticated-user destination the channel
// subscribes to after the handshake.
const userQueue = "/user/queue/notifications"

// defaultReconnectDelay is the fixed backoff between reconnect attempts.
const defaultReconnectDelay = 5 * time.Second

// Envelope is the JSON frame format exchanged on the wire.
type Envelope struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// Frame types.
const (
	frameSubscribe = "SUBSCRIBE"
	frameMessage   = "MESSAGE"
)

// EventHandler receives every notification delivered on the channel.
type EventHandler func(model.Notification)

// Channel is the realtime notification subscription. Its lifecycle is
// Disconnected -> Connecting -> Subscribed -> Disconnected; a transport
// drop moves it back to Connecting and it retries on a fixed delay,
// re-reading the current credential at each attempt.
type Channel struct {
	url            string
	sess           *session.Store
	clientID       string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	logger         *slog.Logger

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	stopCh  chan struct{}
	onEvent EventHandler
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithReconnectDelay overrides the fixed backoff between reconnect attempts.
func WithReconnectDelay(d time.Duration) ChannelOption {
	return func(c *Channel) { c.reconnectDelay = d }
}

// WithChannelLogger sets the structured logger for connection diagnostics.
func WithChannelLogger(l *slog.Logger) ChannelOption {
	return func(c *Channel) { c.logger = l }
}

// NewChannel creates a disconnected channel for the given websocket URL.
// The session store supplies the handshake credential at connect and
// reconnect time.
func NewChannel(url string, sess *session.Store, opts ...ChannelOption) *Channel {
	c := &Channel{
		url:            url,
		sess:           sess,
		clientID:       uuid.NewString(),
		reconnectDelay: defaultReconnectDelay,
		dialer:         websocket.DefaultDialer,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the connection and subscribes to the per-user queue,
// routing every inbound notification to onEvent. It is a silent no-op
// when no credential is stored (no network activity) and when the channel
// is already connecting or subscribed.
func (c *Channel) Connect(onEvent EventHandler) {
	if !c.sess.LoggedIn() {
		return
	}

	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.stopCh = make(chan struct{})
	c.onEvent = onEvent
	stop := c.stopCh
	c.mu.Unlock()

	go c.run(stop)
}

// Disconnect tears down the connection and subscription. It is idempotent
// and never panics; calling it on a disconnected channel has no effect.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
}

// run is the connection loop: dial, subscribe, read until the transport
// drops, then retry after the fixed delay. The loop ends when Disconnect
// is called or when the session no longer holds a credential.
func (c *Channel) run(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		// Re-read the credential on every attempt so a refreshed token is
		// used instead of the one captured at first connect.
		token := c.sess.Token()
		if token == "" {
			c.Disconnect()
			return
		}

		conn, err := c.dial(token)
		if err != nil {
			c.logger.Warn("notification channel dial failed", "error", err)
			if !c.waitRetry(stop) {
				return
			}
			continue
		}

		if err := c.subscribe(conn); err != nil {
			c.logger.Warn("notification subscribe failed", "error", err)
			_ = conn.Close()
			if !c.waitRetry(stop) {
				return
			}
			continue
		}

		c.mu.Lock()
		select {
		case <-stop:
			// Disconnected while dialing; drop the fresh connection.
			c.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		c.conn = conn
		c.state = Subscribed
		c.mu.Unlock()

		c.logger.Info("notification channel subscribed", "destination", userQueue)

		c.readLoop(conn, stop)

		c.mu.Lock()
		if c.state == Disconnected {
			c.mu.Unlock()
			return
		}
		c.state = Connecting
		c.conn = nil
		c.mu.Unlock()

		if !c.waitRetry(stop) {
			return
		}
	}
}

// dial performs the websocket handshake, authenticating with the bearer
// credential in a connect header.
func (c *Channel) dial(token string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("X-Client-Id", c.clientID)

	conn, resp, err := c.dialer.Dial(c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// subscribe sends the subscription envelope for the per-user queue.
func (c *Channel) subscribe(conn *websocket.Conn) error {
	return conn.WriteJSON(Envelope{
		Type:        frameSubscribe,
		Destination: userQueue,
	})
}

// readLoop routes inbound message frames to the event handler until the
// connection drops or the channel stops.
func (c *Channel) readLoop(conn *websocket.Conn, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-stop:
			default:
				c.logger.Warn("notification channel dropped", "error", err)
			}
			return
		}

		if env.Type != frameMessage || len(env.Body) == 0 {
			continue
		}

		var n model.Notification
		if err := json.Unmarshal(env.Body, &n); err != nil {
			c.logger.Warn("discarding malformed notification frame", "error", err)
			continue
		}

		c.mu.Lock()
		handler := c.onEvent
		c.mu.Unlock()
		if handler != nil {
			handler(n)
		}
	}
}

// waitRetry sleeps for the reconnect delay. It returns false when the
// channel was stopped while waiting.
func (c *Channel) waitRetry(stop chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-time.After(c.reconnectDelay):
		return true
	}
}
