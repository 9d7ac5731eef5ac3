// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apperrors defines the small, closed error taxonomy shared across
// the recommendation pipeline. Every error a component returns across a
// package boundary should be classifiable into one of the Kinds below via
// errors.As, rather than compared against ad-hoc sentinel values.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation purposes. Callers branch on
// Kind, not on error message text.
type Kind string

const (
	// InvalidArgument is surfaced to the caller unchanged: bad k, unknown
	// strategy, malformed identifiers.
	InvalidArgument Kind = "invalid_argument"

	// NotFound converts to a fallback result rather than an error response.
	NotFound Kind = "not_found"

	// IntegrityError indicates a manifest mismatch, checksum failure, or
	// dimension mismatch. Serving falls back; the builder aborts the run.
	IntegrityError Kind = "integrity_error"

	// Degraded indicates a connector or vector-store read timed out.
	// Routes to fallback.
	Degraded Kind = "degraded"

	// Internal indicates a programmer error. Surfaced, never retried.
	Internal Kind = "internal"
)

// Error wraps a Kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error carrying cause. If cause is nil, Wrap returns
// nil, mirroring the common "wrap only on error" idiom.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}
