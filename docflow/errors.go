/*
errors.go - Centralized error types for the document engine

PURPOSE:
  All failure modes in one place. Every error here is recoverable by the
  caller: the engine never terminates the process, it returns a typed error
  for the caller to display so the user can correct the input.

ERROR CATEGORIES:
  1. Validation errors - missing fields, wrong-state transitions
  2. Gating errors     - role not permitted for the transition
  3. Store errors      - missing documents, stale-version saves

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, docflow.ErrValidation) {
        // 422: show the field error, let the user fix it
    }
*/
package docflow

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when required input is missing or a
	// transition is attempted from the wrong status. Raised before any
	// mutation: the transition either fully applies or not at all.
	ErrValidation = errors.New("validation failed")

	// ErrNotActionable is returned when the acting role is not gated to the
	// requested transition, or the document is in a terminal status.
	ErrNotActionable = errors.New("document not actionable")

	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrUnknownKind is returned for a kind with no registered definition.
	ErrUnknownKind = errors.New("unknown document kind")

	// ErrConcurrentModification is returned when a save's version check
	// detects a conflicting write. The in-memory transition is not committed;
	// the caller reloads and retries.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific invalid field or wrong-state attempt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a role-gating failure.
type TransitionError struct {
	Kind   Kind
	Status Status
	Action Action
	Role   Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in status %q: action %q not permitted for role %q",
		e.Kind, e.Status, e.Action, e.Role)
}

func (e *TransitionError) Unwrap() error { return ErrNotActionable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotActionable) ||
		errors.Is(err, ErrUnknownKind)
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the operation might succeed after a reload.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
