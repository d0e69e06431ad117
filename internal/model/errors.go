package model

import "fmt"

// ValidationError signals malformed caller input. It is the only failure the
// engine surfaces before doing any work.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named request field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientDataError signals that no usable pools or targets remain after
// filtering. It is a client-visible "no results" condition, not a server fault.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// NewInsufficientDataError builds an InsufficientDataError.
func NewInsufficientDataError(reason string) *InsufficientDataError {
	return &InsufficientDataError{Reason: reason}
}
