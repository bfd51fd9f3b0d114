package network

import (
	"fmt"

	"github.com/pkg/errors"
)

// Execution errors.
var (
	ErrUnboundInput     = errors.New("unbound input")
	ErrBackendExecution = errors.New("backend execution failed")
	ErrInvalidState     = errors.New("invalid network state")
)

// ExecutionError reports a failed run and the primitive it failed at.
type ExecutionError struct {
	Err       error  // One of the Err* sentinels
	Primitive string // Primitive the run failed at
	Cause     error  // Kernel error, if any
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: primitive %q", e.Err, e.Primitive)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the sentinel and the cause.
func (e *ExecutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
