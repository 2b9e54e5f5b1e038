// Package apperror defines the error kinds the client surfaces to callers.
// Every error leaving an adaptor or usecase wraps one of these sentinels so
// callers can branch with errors.Is without inspecting transport details.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks field-scoped input failures. They stay local and
	// are never sent to the backend until resolved.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork marks a transport failure. Retryable by user action only.
	ErrNetwork = errors.New("network failure")

	// ErrTimeout marks a request that exceeded the configured deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrAuth marks a missing, expired or rejected session.
	ErrAuth = errors.New("unauthorized")

	// ErrNotFound marks a referenced event or registration that no longer
	// exists. Terminal, not retried.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a write rejected by server-side state (capacity
	// exceeded, duplicate registration) despite a passing client pre-check.
	ErrConflict = errors.New("conflict")

	// ErrUnknown is the fallback for unclassified server failures.
	ErrUnknown = errors.New("server error")
)

// ErrAlreadyRegistered is the conflict raised when the viewer already holds
// a registration for the event. It satisfies errors.Is(err, ErrConflict).
var ErrAlreadyRegistered = fmt.Errorf("already registered for this event: %w", ErrConflict)

// Wrap attaches a human-readable message (typically passed through from the
// backend) to one of the sentinel kinds.
func Wrap(kind error, message string) error {
	if message == "" {
		return kind
	}
	return fmt.Errorf("%s: %w", message, kind)
}

// Message returns the text to show the user for err. Backend messages pass
// through; bare sentinels fall back to their own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
