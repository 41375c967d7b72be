package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a ServerError with status 404 via errors.Is.
var ErrNotFound = errors.New("task not found")

// NetworkError wraps a transport-level failure (no HTTP response at all).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx HTTP response from the task service.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Status)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
