package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrArtifactNotFound = fmt.Errorf("%w: model artifact", ErrNotFound)

	// Encoding / training errors
	ErrEncoding         = errors.New("encoding error")
	ErrConvergence      = errors.New("model did not converge")
	ErrInsufficientData = errors.New("insufficient data for fitting")

	// Artifact integrity errors
	ErrSchemaMismatch = errors.New("schema does not match fitted model")
	ErrHashMismatch   = errors.New("hash mismatch")
)

// EncodingError reports a raw field that could not be turned into a feature value.
// Row is the zero-based dataset row, or -1 for a single inference record.
type EncodingError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("encoding error at row %d, field %q (value %q): %s", e.Row, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("encoding error for field %q (value %q): %s", e.Field, e.Value, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// ConvergenceError reports a failed proportional-hazards fit.
type ConvergenceError struct {
	Iterations int
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("convergence failed after %d iterations: %s", e.Iterations, e.Reason)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingFieldError(row int, field string) error {
	return &EncodingError{Row: row, Field: field, Reason: "required field is missing"}
}

func NewSchemaMismatchError(reason string) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEncodingError(err error) bool {
	return errors.Is(err, ErrEncoding)
}

func IsConvergenceError(err error) bool {
	return errors.Is(err, ErrConvergence)
}

func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrHashMismatch)
}
