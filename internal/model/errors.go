package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotLoggedIn is returned when the backend rejects a job start because
	// no EarthAccess session is active.
	ErrNotLoggedIn = errors.New("not logged in to EarthAccess")

	// ErrJobNotFound is returned when the backend does not know the job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrMalformedResponse is returned when a response body lacks the expected fields.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// APIError is a well-formed backend response with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend rejected request (HTTP %d): %s", e.StatusCode, e.Message)
}
