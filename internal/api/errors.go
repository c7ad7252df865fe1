package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the task API, carrying the HTTP status
// and the server's message body when one was present. Transport-level
// failures are never wrapped in an Error; they propagate as plain wrapped
// errors so callers can tell an unreachable server from a rejected request.
type Error struct {
	// StatusCode is the HTTP status returned by the server.
	StatusCode int

	// Message is the server-provided message, or the raw body when the
	// response was not the usual {"message": ...} JSON shape.
	Message string

	// Method and Path identify the request that failed.
	Method string
	Path   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s (%d)", e.Method, e.Path, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsUnauthorized reports whether err (or any error in its chain) is an API
// error with a 401 status.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsValidation reports whether err is a 4xx API error other than 401,
// carrying a user-facing message.
func IsValidation(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusUnauthorized
}

// UserMessage extracts a message suitable for a transient UI notice.
// API errors yield the server message; anything else is reported as a
// connectivity problem.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return "cannot reach the server, please try again"
	}
	return ""
}
