package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a relay failure
type ErrorKind string

const (
	KindMethodNotAllowed   ErrorKind = "MethodNotAllowed"
	KindBadRequest         ErrorKind = "BadRequest"
	KindConfigurationError ErrorKind = "ConfigurationError"
	KindUpstreamError      ErrorKind = "UpstreamError"
	KindInternalError      ErrorKind = "InternalError"
)

// Common relay errors
var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrMissingBody      = errors.New("missing request body")
	ErrInvalidJSON      = errors.New("invalid JSON")
	ErrMissingAPIKey    = errors.New("upstream API key is not configured")
	ErrMalformedOutput  = errors.New("upstream returned malformed JSON")
	ErrInternal         = errors.New("internal server error")
)

// Error is a relay failure carrying the status code and message returned to the caller
type Error struct {
	Kind       ErrorKind      // Failure class
	StatusCode int            // HTTP status returned to the caller
	Message    string         // Human readable message, safe to expose
	Details    map[string]any // Optional upstream error payload
	Err        error          // Underlying cause, never exposed
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new relay Error
func NewError(kind ErrorKind, statusCode int, message string, err error) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func methodNotAllowed() *Error {
	return NewError(KindMethodNotAllowed, http.StatusMethodNotAllowed, ErrMethodNotAllowed.Error(), ErrMethodNotAllowed)
}

func badRequest(message string, err error) *Error {
	return NewError(KindBadRequest, http.StatusBadRequest, message, err)
}

func configurationError(err error) *Error {
	return NewError(KindConfigurationError, http.StatusInternalServerError, err.Error(), err)
}

func upstreamError(statusCode int, message string, details map[string]any, err error) *Error {
	e := NewError(KindUpstreamError, statusCode, message, err)
	e.Details = details
	return e
}

func internalError(err error) *Error {
	return NewError(KindInternalError, http.StatusInternalServerError, ErrInternal.Error(), err)
}

// AsError converts any error into a relay Error. Unknown errors become InternalError
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return internalError(err)
}
