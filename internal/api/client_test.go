package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/session"
)

func newTestSession(t *testing.T, token string) *session.Store {
	t.Helper()
	backend := session.NewMemoryBackend()
	sess := session.NewStore(backend)
	if token != "" {
		require.NoError(t, sess.SetToken(token))
	}
	return sess
}

func TestClientAttachesBearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sess := newTestSession(t, "T1")
	client := NewClient(srv.URL, sess)

	var out map[string]bool
	require.NoError(t, client.Get(context.Background(), "/api/v1/tasks", &out))
	assert.Equal(t, "Bearer T1", gotAuth)
}

func TestClientNoBearerWhenLoggedOut(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestSession(t, ""))
	require.NoError(t, client.Get(context.Background(), "/health", nil))
	assert.Empty(t, gotAuth)
}

func TestClientRefreshesOnceAndRetriesWithNewToken(t *testing.T) {
	var refreshCalls int32
	var retryAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		retryAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[]}`))
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"T2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t, "T1")
	client := NewClient(srv.URL, sess)

	var out json.RawMessage
	require.NoError(t, client.Get(context.Background(), "/api/v1/tasks", &out))

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "Bearer T2", retryAuth)
	assert.Equal(t, "T2", sess.Token())
}

func TestClientSecondRejectionPropagatesWithoutSecondRefresh(t *testing.T) {
	var refreshCalls, taskCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&taskCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"T2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, newTestSession(t, "T1"))

	err := client.Get(context.Background(), "/api/v1/tasks", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&taskCalls))
}

func TestClientRefreshFailureClearsSessionAndFiresHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"refresh token expired"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t, "T1")
	client := NewClient(srv.URL, sess)

	expired := false
	client.OnSessionExpired(func() { expired = true })

	err := client.Get(context.Background(), "/api/v1/tasks", nil)
	require.Error(t, err)

	// The caller sees the original rejection, not the refresh error.
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/api/v1/tasks", apiErr.Path)

	assert.True(t, expired)
	assert.False(t, sess.LoggedIn())
	assert.Empty(t, sess.Token())
}

func TestClientConcurrentRejectionsShareOneRefresh(t *testing.T) {
	const parallel = 8

	var refreshCalls int32

	// Hold every stale request until all of them have arrived, so the
	// rejections land together and contend for the refresh at once.
	var barrier sync.WaitGroup
	barrier.Add(parallel)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			barrier.Done()
			barrier.Wait()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		// Keep the refresh in flight long enough for every rejected
		// caller to join it.
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"T2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, newTestSession(t, "T1"))

	var wg sync.WaitGroup
	errs := make([]error, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/api/v1/tasks", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestClientParsesServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"title must not be blank"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestSession(t, "T1"))

	err := client.Post(context.Background(), "/api/v1/tasks", map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.False(t, IsUnauthorized(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "title must not be blank", apiErr.Message)
	assert.Equal(t, "title must not be blank", UserMessage(err))
}

func TestClientNetworkErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, newTestSession(t, "T1"))

	err := client.Get(context.Background(), "/api/v1/tasks", nil)
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "cannot reach the server, please try again", UserMessage(err))
}

func TestClientGetRawReturnsBodyVerbatim(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestSession(t, "T1"))

	data, err := client.GetRaw(context.Background(), "/api/v1/reports/tasks/export")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestClientRefreshWorksWithoutPriorBearer(t *testing.T) {
	// A 401 on a request carrying the refresh cookie alone must still go
	// through the refresh path: the retried request picks up whatever the
	// store holds at send time.
	mux := http.NewServeMux()
	token := "stale"
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"fresh"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t, token)
	client := NewClient(srv.URL, sess)

	require.NoError(t, client.Get(context.Background(), "/api/v1/users", nil))
	assert.Equal(t, "fresh", sess.Token())
}
