package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/session"
)

// wsServer is a minimal notification endpoint. It records handshakes and
// subscription envelopes and lets tests push message frames.
type wsServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	srv      *httptest.Server

	mu         sync.Mutex
	handshakes []http.Header
	subscribed chan Envelope
	conns      chan *websocket.Conn
	dials      int32
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{
		t:          t,
		subscribed: make(chan Envelope, 4),
		conns:      make(chan *websocket.Conn, 4),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.dials, 1)
		s.mu.Lock()
		s.handshakes = append(s.handshakes, r.Header.Clone())
		s.mu.Unlock()

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			conn.Close()
			return
		}
		s.subscribed <- env
		s.conns <- conn
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) lastHandshake() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(s.t, s.handshakes)
	return s.handshakes[len(s.handshakes)-1]
}

func (s *wsServer) push(conn *websocket.Conn, n model.Notification) {
	body, err := json.Marshal(n)
	require.NoError(s.t, err)
	require.NoError(s.t, conn.WriteJSON(Envelope{
		Type:        "MESSAGE",
		Destination: "/user/queue/notifications",
		Body:        body,
	}))
}

func loggedInSession(t *testing.T) *session.Store {
	t.Helper()
	sess := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, sess.SetSession("T1", &model.User{ID: 7, Email: "a@b.com"}))
	return sess
}

func waitForState(t *testing.T, c *Channel, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel never reached state %d (now %d)", want, c.State())
}

func TestConnectWithoutCredentialIsSilent(t *testing.T) {
	srv := newWSServer(t)
	sess := session.NewStore(session.NewMemoryBackend())

	c := NewChannel(srv.url(), sess)
	c.Connect(func(model.Notification) {})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Disconnected, c.State())
	assert.Equal(t, int32(0), atomic.LoadInt32(&srv.dials))
}

func TestConnectSubscribesWithBearerHandshake(t *testing.T) {
	srv := newWSServer(t)
	c := NewChannel(srv.url(), loggedInSession(t))
	defer c.Disconnect()

	c.Connect(func(model.Notification) {})

	select {
	case env := <-srv.subscribed:
		assert.Equal(t, "SUBSCRIBE", env.Type)
		assert.Equal(t, "/user/queue/notifications", env.Destination)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription envelope received")
	}
	waitForState(t, c, Subscribed)

	hs := srv.lastHandshake()
	assert.Equal(t, "Bearer T1", hs.Get("Authorization"))
	assert.NotEmpty(t, hs.Get("X-Client-Id"))
}

func TestEventsAreRoutedToHandler(t *testing.T) {
	srv := newWSServer(t)
	c := NewChannel(srv.url(), loggedInSession(t))
	defer c.Disconnect()

	events := make(chan model.Notification, 4)
	c.Connect(func(n model.Notification) { events <- n })

	<-srv.subscribed
	conn := <-srv.conns
	srv.push(conn, model.Notification{ID: 11, Type: "TASK_ASSIGNED", Message: "you got one", TaskID: 42})

	select {
	case n := <-events:
		assert.Equal(t, int64(11), n.ID)
		assert.Equal(t, "TASK_ASSIGNED", n.Type)
		assert.Equal(t, int64(42), n.TaskID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never reached the handler")
	}
}

func TestNonMessageFramesAreIgnored(t *testing.T) {
	srv := newWSServer(t)
	c := NewChannel(srv.url(), loggedInSession(t))
	defer c.Disconnect()

	events := make(chan model.Notification, 4)
	c.Connect(func(n model.Notification) { events <- n })

	<-srv.subscribed
	conn := <-srv.conns
	require.NoError(t, conn.WriteJSON(Envelope{Type: "RECEIPT"}))
	srv.push(conn, model.Notification{ID: 12, Message: "after noise"})

	select {
	case n := <-events:
		assert.Equal(t, int64(12), n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never reached the handler")
	}
	assert.Empty(t, events)
}

func TestReconnectUsesCurrentToken(t *testing.T) {
	srv := newWSServer(t)
	sess := loggedInSession(t)
	c := NewChannel(srv.url(), sess, WithReconnectDelay(20*time.Millisecond))
	defer c.Disconnect()

	c.Connect(func(model.Notification) {})
	<-srv.subscribed
	conn := <-srv.conns
	waitForState(t, c, Subscribed)

	// Simulate a refresh while connected, then drop the transport.
	require.NoError(t, sess.SetToken("T2"))
	conn.Close()

	select {
	case <-srv.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("channel never resubscribed")
	}
	assert.Equal(t, "Bearer T2", srv.lastHandshake().Get("Authorization"))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	srv := newWSServer(t)
	c := NewChannel(srv.url(), loggedInSession(t))

	c.Connect(func(model.Notification) {})
	<-srv.subscribed
	waitForState(t, c, Subscribed)

	c.Disconnect()
	c.Disconnect()
	assert.Equal(t, Disconnected, c.State())

	// Safe on a never-connected channel too.
	fresh := NewChannel(srv.url(), loggedInSession(t))
	fresh.Disconnect()
	assert.Equal(t, Disconnected, fresh.State())
}

func TestConnectWhileSubscribedIsNoOp(t *testing.T) {
	srv := newWSServer(t)
	c := NewChannel(srv.url(), loggedInSession(t))
	defer c.Disconnect()

	c.Connect(func(model.Notification) {})
	<-srv.subscribed
	waitForState(t, c, Subscribed)
	dials := atomic.LoadInt32(&srv.dials)

	c.Connect(func(model.Notification) {})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, Subscribed, c.State())
	assert.Equal(t, dials, atomic.LoadInt32(&srv.dials))
}
