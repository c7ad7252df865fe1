package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/session"
)

func newAuthFixture(t *testing.T, handler http.Handler) (*AuthAPI, *session.Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewStore(session.NewMemoryBackend())
	client := NewClient(srv.URL, sess)
	public := NewPublic(srv.URL, client.Jar())
	return NewAuthAPI(public, client, sess), sess, srv
}

func TestLoginStoresTokenAndProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "secret123", req.Password)
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"accessToken": "T1",
			"user": {
				"id": 7, "email": "a@b.com", "fullName": "Alice B",
				"role": "ADMIN", "emailVerified": true, "isActive": true
			}
		}`))
	})

	auth, sess, _ := newAuthFixture(t, mux)

	resp, err := auth.Login(context.Background(), "a@b.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.AccessToken)

	cur := sess.Current()
	require.True(t, cur.LoggedIn())
	require.NotNil(t, cur.Profile)
	assert.Equal(t, "a@b.com", cur.Profile.Email)
	assert.Equal(t, "Alice B", cur.Profile.FullName)
	assert.True(t, cur.IsAdmin())
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	})

	auth, sess, _ := newAuthFixture(t, mux)

	_, err := auth.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "bad credentials", UserMessage(err))
	assert.False(t, sess.LoggedIn())
}

func TestLogoutClearsLocalSessionEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	auth, sess, _ := newAuthFixture(t, mux)
	require.NoError(t, sess.SetToken("T1"))

	err := auth.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, sess.LoggedIn())
}

func TestRegisterVerifyOTPStoresSessionWhenTokenReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var req VerifyOTPRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456", req.OTP)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"accessToken": "T-new",
			"user": {"id": 9, "email": "new@b.com", "fullName": "New User", "role": "MEMBER"}
		}`))
	})

	auth, sess, _ := newAuthFixture(t, mux)

	resp, err := auth.RegisterVerifyOTP(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "T-new", resp.AccessToken)
	assert.True(t, sess.LoggedIn())
	assert.False(t, sess.Current().IsAdmin())
}

func TestChangePasswordUsesAuthenticatedPatch(t *testing.T) {
	var gotMethod, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	auth, sess, _ := newAuthFixture(t, mux)
	require.NoError(t, sess.SetToken("T1"))

	require.NoError(t, auth.ChangePassword(context.Background(), "old", "newpass1", "newpass1"))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "Bearer T1", gotAuth)
}
