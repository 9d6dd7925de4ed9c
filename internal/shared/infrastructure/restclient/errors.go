package restclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// RemoteError is returned for every failed call to the remote API: transport
// failures, non-2xx responses and calls refused by an open circuit breaker.
type RemoteError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: remote returned %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote call failed"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NotFound reports a 404 from the remote API.
func (e *RemoteError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Conflict reports a 409 from the remote API.
func (e *RemoteError) Conflict() bool { return e.StatusCode == http.StatusConflict }

// CircuitOpen reports that the call never left the process.
func (e *RemoteError) CircuitOpen() bool {
	return errors.Is(e.Err, gobreaker.ErrOpenState) || errors.Is(e.Err, gobreaker.ErrTooManyRequests)
}

// Retryable reports failures worth retrying by the caller's own policy.
func (e *RemoteError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// RemoteError carrying a response.
func StatusCode(err error) int {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode
	}
	return 0
}

// errorBody mirrors the JSON error envelope written by the API.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
