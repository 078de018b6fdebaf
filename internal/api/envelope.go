// Package api implements the HTTP client for the insurance-agency API:
// envelope decoding, bearer auth, and the one-shot refresh-and-retry
// flow on 401 responses.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Envelope is the JSON wrapper every API response uses.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the envelope's data into v.
func (e *Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode envelope data: %w", err)
	}
	return nil
}

// Sentinel errors for status-based branching via errors.Is.
var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// Error is a server-rejected request: non-2xx status with the message
// unwrapped from the envelope when one was present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// Is maps statuses onto the sentinel errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// ErrorMessage extracts a user-facing message from an error, falling
// back to the given default. Used by the mutation notifier.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
