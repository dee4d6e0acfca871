package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCredentialMissing is returned when an authenticated operation is
	// attempted with no active credential. No request is sent.
	ErrCredentialMissing = errors.New("authentication required")

	// ErrIncompleteRange is returned when an analytics query is missing a
	// start or end bound. No request is sent.
	ErrIncompleteRange = errors.New("start and end dates are required")
)

// TransportError is a failure before an HTTP response was obtained, or a
// response whose envelope could not be decoded. It is never retried here.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is an HTTP response with a non-success status. Message comes
// from the server body when present, else the status text.
type ServerError struct {
	Status  int
	Message string
}

func NewServerError(status int, message string) *ServerError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &ServerError{Status: status, Message: message}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}
