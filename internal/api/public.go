package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Public is the unauthenticated HTTP client. It never attaches a bearer
// credential and never intercepts rejections; it exists strictly for the
// endpoints that precede a session (login, registration, password reset).
// It shares a cookie jar with the authenticated client so the refresh
// cookie issued at login is visible to the refresh endpoint, but carries
// no interceptor state.
type Public struct {
	baseURL    string
	httpClient *http.Client
}

// NewPublic creates an unauthenticated client for the API rooted at
// baseURL, sharing the given cookie jar. A nil jar is valid and yields a
// client with no cookie persistence.
func NewPublic(baseURL string, jar http.CookieJar) *Public {
	return &Public{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Post performs an HTTP POST request with a JSON body and unmarshals the
// JSON response.
func (p *Public) Post(ctx context.Context, path string, body, result interface{}) error {
	url := p.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request POST %s: %w", path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, http.MethodPost, path, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from POST %s: %w", path, err)
	}

	return nil
}
