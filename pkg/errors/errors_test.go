package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "resource not found")
	assert.Equal(t, "not_found error (code 404): resource not found", err.Error())

	wrapped := Wrap(ErrorTypeNetwork, 0, "feed request failed", stderrors.New("dial tcp: refused"))
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
	assert.True(t, stderrors.Is(wrapped, wrapped.Err))
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("crawl aborted: %w", NewResolutionError("someone", nil))

	assert.True(t, IsType(err, ErrorTypeResolution))
	assert.False(t, IsType(err, ErrorTypeSession))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeResolution))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeResolution, false},
		{ErrorTypeSession, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(http.StatusTooManyRequests))
	assert.True(t, IsRetryableStatusCode(http.StatusBadGateway))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(http.StatusForbidden))
	assert.False(t, IsRetryableStatusCode(http.StatusBadRequest))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidationError("target_username is required")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewResolutionError("x", nil)))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(NewSessionError("no session", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewConfigurationError("no browser")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
}
