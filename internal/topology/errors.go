package topology

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Graph construction and compilation errors.
var (
	ErrNameConflict         = errors.New("name conflict")
	ErrUnresolvedReference  = errors.New("unresolved reference")
	ErrCycle                = errors.New("dependency cycle")
	ErrLayoutIncompatible   = errors.New("layout incompatible")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
	ErrInvalidPrimitive     = errors.New("invalid primitive")
)

// GraphError describes a construction or compilation failure.
type GraphError struct {
	Err       error    // One of the Err* sentinels
	Primitive string   // Primitive the failure was detected at
	Chain     []string // Primitive chain involved (e.g. the cycle), if any
	Details   string   // Additional details
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Primitive != "" {
		fmt.Fprintf(&sb, ": primitive %q", e.Primitive)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(e.Chain, " -> "))
	}
	if e.Details != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Details)
	}
	return sb.String()
}

// Unwrap returns the sentinel error.
func (e *GraphError) Unwrap() error {
	return e.Err
}

// NewGraphError builds a GraphError with formatted details.
func NewGraphError(sentinel error, primitive string, format string, args ...any) *GraphError {
	return &GraphError{
		Err:       sentinel,
		Primitive: primitive,
		Details:   fmt.Sprintf(format, args...),
	}
}
