package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"

	// ErrorTypeResolution means an account handle could not be mapped to a
	// platform identifier. Fatal for the crawl that hit it.
	ErrorTypeResolution ErrorType = "resolution"
	// ErrorTypeSession means no valid or refreshable credential set exists.
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeConfiguration means a required backend (browser, yt-dlp) is
	// unset or unreachable.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeValidation means caller input was missing or malformed.
	ErrorTypeValidation ErrorType = "validation"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, code int, msg string) *Error {
	return &Error{Type: t, Message: msg, Code: code}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, code int, msg string, err error) *Error {
	return &Error{Type: t, Message: msg, Code: code, Err: err}
}

// NewResolutionError reports a handle that could not be resolved to an id.
func NewResolutionError(handle string, err error) *Error {
	return Wrap(ErrorTypeResolution, http.StatusBadRequest,
		fmt.Sprintf("failed to resolve user ID for %s", handle), err)
}

// NewSessionError reports that no usable credential set is available.
func NewSessionError(msg string, err error) *Error {
	return Wrap(ErrorTypeSession, http.StatusUnauthorized, msg, err)
}

// NewConfigurationError reports a missing or unreachable backend.
func NewConfigurationError(msg string) *Error {
	return New(ErrorTypeConfiguration, 0, msg)
}

// NewValidationError reports malformed caller input.
func NewValidationError(msg string) *Error {
	return New(ErrorTypeValidation, http.StatusBadRequest, msg)
}

// IsType reports whether any error in err's chain is a typed Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of the first typed Error in err's chain.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}

// HTTPStatus maps an error to the status code an API caller should see.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation, ErrorTypeResolution:
		return http.StatusBadRequest
	case ErrorTypeSession:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
