package serialization

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: constant data may be corrupted")
	ErrUnsupportedVersion = errors.New("unsupported graph file version")
	ErrTooManyPrimitives  = errors.New("too many primitives in file")
	ErrInvalidName        = errors.New("invalid primitive name")
	ErrFileTooLarge       = errors.New("graph file exceeds maximum size")
)

// ValidationError provides detailed information about a malformed graph file.
type ValidationError struct {
	Type      string // Type of error (e.g., "unknown_kind", "bad_layout")
	Primitive string // Primitive involved, if any
	Details   string // Additional details
	Err       error  // Sentinel, if any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Primitive != "" {
		return fmt.Sprintf("%s: primitive %q: %s", e.Type, e.Primitive, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(typ, prim string, err error) *ValidationError {
	return &ValidationError{Type: typ, Primitive: prim, Details: err.Error()}
}
