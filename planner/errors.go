/*
errors.go - Centralized error types for the planner layer

PURPOSE:
  The capacity engine never raises; structural gaps degrade to zero
  contributions by design. Errors in this system therefore live at the
  planner boundary: missing records, unknown grouping dimensions, and
  store failures.

USAGE:
  API handlers map these with errors.Is:

    if planner.IsNotFound(err) {
        writeError(w, http.StatusNotFound, ...)
    }
*/
package planner

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrLineItemNotFound is returned when a referenced line item doesn't exist.
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrUnknownGrouping is returned for a grouping mode outside
	// service/team/member.
	ErrUnknownGrouping = errors.New("unknown grouping mode")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError carries the identifier that failed to resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "client":
		return ErrClientNotFound
	case "line item":
		return ErrLineItemNotFound
	}
	return nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrLineItemNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return IsNotFound(err) || errors.Is(err, ErrUnknownGrouping)
}
