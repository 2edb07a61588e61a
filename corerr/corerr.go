// Package corerr provides the structured error taxonomy used across the
// engine, saga orchestrator, storage layer, and coordinator (spec §7).
// Error wraps an error kind, a human-readable message, and the step or task
// id where the failure originated, preserving causal chains so callers can
// still use errors.Is/errors.As against the wrapped cause.
package corerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation purposes (spec §7).
type Kind string

const (
	// Config indicates invalid inputs at construction or validation time.
	// Fatal, surfaced immediately.
	Config Kind = "config"
	// TransientIO indicates a timeout, refused connection, or temporary
	// backend unavailability. Retryable by the step that observed it;
	// fatal once retries are exhausted.
	TransientIO Kind = "transient_io"
	// NotFound indicates a missing snapshot, thread, dataset, or similar
	// record. Returned as a typed result to the caller.
	NotFound Kind = "not_found"
	// InvariantViolation indicates a schema mismatch, an unsatisfiable task
	// dependency graph, or a duplicate resume attempt. Fatal.
	InvariantViolation Kind = "invariant_violation"
	// Cancelled indicates explicit cancellation propagated into the run.
	Cancelled Kind = "cancelled"
	// Workflow indicates a user-step error raised inside a step. Fatal for
	// the run; sagas compensate on this kind.
	Workflow Kind = "workflow"
)

// Error is the structured error type returned at the boundary of every
// component described in spec §7.
type Error struct {
	Kind    Kind
	Message string
	// StepID or TaskID identifies where the failure originated, whichever
	// applies to the calling component. Empty when not applicable.
	OriginID string
	Cause    error
}

// New constructs an Error of the given kind with no originating id.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind wrapping cause, attributing it
// to originID (a step or task id). originID may be empty.
func Wrap(kind Kind, originID string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Message: msg, OriginID: originID, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.OriginID != "" {
		return fmt.Sprintf("%s: %s (origin=%s)", e.Kind, e.Message, e.OriginID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a *Error with the same Kind, enabling
// errors.Is(err, corerr.New(corerr.NotFound, "")) style checks against a
// sentinel built with the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, returning
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Retryable reports whether err should be retried locally by the step that
// produced it, per the policy in spec §7: only TransientIO is retryable.
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == TransientIO
}
