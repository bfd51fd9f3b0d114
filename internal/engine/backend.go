// Package engine defines the compute capability a network executes through.
//
// The compiler and network never call device code directly: buffer
// allocation and per-kind compute are injected via Backend.
package engine

import (
	"context"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// Kernel computes one primitive. inputs follow p.Inputs; out is preallocated
// with the primitive's resolved output layout.
type Kernel func(ctx context.Context, p *primitive.Primitive, inputs []*memory.Buffer, out *memory.Buffer) error

// Backend allocates buffers and provides kernels per primitive kind.
//
// Implementations:
//   - CPU: pure Go reference kernels (internal/backend/cpu)
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Allocate returns a zeroed buffer for l.
	Allocate(l layout.Layout) (*memory.Buffer, error)

	// Kernel returns the compute implementation for a kind.
	Kernel(kind primitive.Kind) (Kernel, bool)
}

// NeedsKernel reports whether primitives of kind are computed by a kernel.
// Inputs and constant data only hold buffers.
func NeedsKernel(kind primitive.Kind) bool {
	return kind != primitive.KindInputLayout && kind != primitive.KindData
}
