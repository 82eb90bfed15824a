package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

// maxErrorBody bounds how much of an error body is read and kept.
const maxErrorBody = 4 << 10

// StatusError describes a non-2xx answer from an upstream HTTP API.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap maps the status onto the shared sentinel errors so callers can use
// errors.Is without knowing about HTTP.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case e.StatusCode >= 500:
		return apperrors.ErrServiceUnavail
	case e.StatusCode >= 400:
		return apperrors.ErrInvalidInput
	default:
		return nil
	}
}

// ParseResponseError consumes and closes resp.Body and returns a *StatusError.
// It understands both the `{"error":{"message":...}}` shape used by
// OpenAI-compatible APIs and by our own httputil envelope; anything else is
// reported as the (truncated) raw body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Message: "failed to read body: " + err.Error()}
	}

	var envelope struct {
		Error *struct {
			Code    any    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Message: envelope.Error.Message}
	}

	return &StatusError{Service: service, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// IsClientError reports whether status is a 4xx code.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
