package odata

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRemoteUnavailable covers transport, auth and HTTP >= 400 failures.
	ErrRemoteUnavailable = errors.New("odata: remote unavailable")
	// ErrNotFound is returned for HTTP 404. It also matches ErrRemoteUnavailable.
	ErrNotFound = errors.New("odata: entity not found")
	// ErrSourceNotConfigured is returned when no base URL is set for a source.
	ErrSourceNotConfigured = errors.New("odata: source not configured")
)

// maxErrorMessage bounds a raw error body carried in StatusError.
const maxErrorMessage = 512

// StatusError is an HTTP error response from a source.
type StatusError struct {
	Source     Source
	StatusCode int
	// Message is the upstream error text, extracted from the OData error body when possible.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("odata %s: status %d: %s", e.Source, e.StatusCode, e.Message)
}

// Is matches ErrRemoteUnavailable for every status and ErrNotFound for 404.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRemoteUnavailable:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// UpstreamMessage returns the most specific message available for err.
func UpstreamMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type v2ErrorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message json.RawMessage `json:"message"`
	} `json:"error"`
}

// extractMessage reads the message of an OData V2 ({"error":{"message":{"value":..}}})
// or V4 ({"error":{"message":..}}) error body, falling back to the raw text.
func extractMessage(status int, body []byte) string {
	var eb v2ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Error.Message) > 0 {
		var s string
		if json.Unmarshal(eb.Error.Message, &s) == nil && s != "" {
			return s
		}
		var v struct {
			Value string `json:"value"`
		}
		if json.Unmarshal(eb.Error.Message, &v) == nil && v.Value != "" {
			return v.Value
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if len(text) > maxErrorMessage {
		text = text[:maxErrorMessage]
	}
	return text
}
