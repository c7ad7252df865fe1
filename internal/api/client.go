// Package api contains the HTTP clients for the task API server and the
// typed request builders layered on top of them.
//
// Two transports exist: Public issues requests with no credential attached
// and serves the flows that precede a session (login, registration,
// password reset); Client attaches the current bearer credential to every
// request and transparently recovers from a single expired-credential
// rejection by refreshing and retrying once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SEP490-G11/Project-Round/internal/session"
)

const refreshPath = "/auth/refresh"

// Client is the authenticated HTTP client. It injects the stored bearer
// credential on every outbound request and, on a 401, performs exactly one
// refresh-and-retry before giving up. Concurrent 401s share a single
// in-flight refresh call.
type Client struct {
	baseURL    string
	sess       *session.Store
	httpClient *http.Client
	refresh    singleflight.Group
	onExpired  func()
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The caller is
// responsible for attaching a cookie jar if refresh-cookie continuity
// with the public client is needed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the structured logger used for refresh diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an authenticated client for the API rooted at baseURL.
// The session store supplies the credential at send time and receives the
// renewed credential after a successful refresh. The returned client owns
// a cookie jar so the server-set refresh cookie survives across requests.
func NewClient(baseURL string, sess *session.Store, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		sess:    sess,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired registers the navigation side effect fired when a
// refresh fails and the session is cleared. At most one handler is held.
func (c *Client) OnSessionExpired(fn func()) {
	c.onExpired = fn
}

// Jar exposes the client's cookie jar so the public client can share
// transport-level session continuity (the login response sets the refresh
// cookie that the refresh endpoint later consumes).
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals the
// JSON response.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Patch performs an HTTP PATCH request with a JSON body and unmarshals the
// JSON response.
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetRaw performs an HTTP GET request and returns the raw response body.
// Used for endpoints that return opaque byte streams (report export).
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	var raw rawBody
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// rawBody marks a result destination that receives the response bytes
// verbatim instead of being JSON-decoded.
type rawBody []byte

// do dispatches the request once and, when the server rejects the
// credential, resolves a single refresh before retrying once with the
// newly obtained credential. A second rejection propagates unchanged.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	err := c.doOnce(ctx, method, path, body, result)
	if !IsUnauthorized(err) {
		return err
	}

	if _, refreshErr := c.refreshToken(ctx); refreshErr != nil {
		c.expireSession()
		// The caller sees the original rejection, not a refresh-specific
		// error.
		return err
	}

	return c.doOnce(ctx, method, path, body, result)
}

// doOnce builds and executes a single request with the credential current
// in the session store at send time. No refresh interception happens here.
func (c *Client) doOnce(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, method, path, respBody)
	}

	if out, ok := result.(*rawBody); ok {
		*out = respBody
		return nil
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// refreshToken renews the credential via the refresh endpoint. The call is
// de-duplicated: concurrent callers that each received a 401 share one
// in-flight refresh and all observe the same outcome. The refresh request
// carries no bearer header; the server authenticates it from the refresh
// cookie held in the client's jar.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	token, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.baseURL+refreshPath, nil,
		)
		if err != nil {
			return "", fmt.Errorf("creating refresh request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("executing refresh request: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("reading refresh response: %w", readErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", newAPIError(resp.StatusCode, http.MethodPost, refreshPath, respBody)
		}

		var renewed RefreshResponse
		if err := json.Unmarshal(respBody, &renewed); err != nil {
			return "", fmt.Errorf("unmarshaling refresh response: %w", err)
		}
		if renewed.AccessToken == "" {
			return "", fmt.Errorf("refresh response carried no access token")
		}

		// The retried request must use the new credential, so the store is
		// updated before any waiter proceeds.
		if err := c.sess.SetToken(renewed.AccessToken); err != nil {
			return "", fmt.Errorf("storing renewed token: %w", err)
		}

		c.logger.Debug("access token renewed")
		return renewed.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// expireSession clears both persisted slots and fires the navigation side
// effect toward the login entry point.
func (c *Client) expireSession() {
	c.logger.Info("session expired, clearing stored credentials")
	c.sess.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
}

// newAPIError builds an *Error from a non-2xx response, preferring the
// server's {"message": ...} body when present.
func newAPIError(status int, method, path string, body []byte) *Error {
	apiErr := &Error{
		StatusCode: status,
		Method:     method,
		Path:       path,
	}

	var msg MessageResponse
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		apiErr.Message = msg.Message
	} else if len(body) > 0 {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}
