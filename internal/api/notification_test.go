package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/session"
)

func newNotificationFixture(t *testing.T, handler http.Handler) *NotificationAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, sess.SetToken("T1"))
	return NewNotificationAPI(NewClient(srv.URL, sess))
}

func TestNotificationListDecodesAndFilters(t *testing.T) {
	var gotQuery map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 2, "type": "COMMENT_ADDED", "message": "new comment", "taskId": 10,
			 "createdAt": "2026-08-30T10:00:00Z"},
			{"id": 1, "type": "TASK_ASSIGNED", "message": "assigned to you", "taskId": 10,
			 "createdAt": "2026-08-30T09:00:00Z", "readAt": "2026-08-30T09:30:00Z"}
		]`))
	})

	napi := newNotificationFixture(t, mux)

	out, err := napi.List(context.Background(), NotificationListParams{Page: 0, Size: 50, UnreadOnly: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"true"}, gotQuery["unread"])
	assert.Equal(t, []string{"50"}, gotQuery["size"])

	require.Len(t, out, 2)
	assert.True(t, out[0].Unread())
	assert.False(t, out[1].Unread())
}

func TestMarkReadEndpoints(t *testing.T) {
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/7/read", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	napi := newNotificationFixture(t, mux)

	require.NoError(t, napi.MarkRead(context.Background(), 7))
	require.NoError(t, napi.MarkAllRead(context.Background()))
	assert.Equal(t, []string{
		"PATCH /notifications/7/read",
		"PATCH /notifications/read-all",
	}, calls)
}
