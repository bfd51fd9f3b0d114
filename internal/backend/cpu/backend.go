// Package cpu implements the reference CPU backend: pure Go kernels for every
// primitive kind, addressing elements through their layouts so any input
// format is readable.
package cpu

import (
	"sort"

	"github.com/born-ml/layoutnet/internal/engine"
	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// CPUBackend runs primitives on the host.
type CPUBackend struct {
	kernels map[primitive.Kind]engine.Kernel
	cfg     parallel.Config
}

var _ engine.Backend = (*CPUBackend)(nil)

// New creates a CPU backend with default parallelism.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend whose kernels split work per cfg.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	cpu := &CPUBackend{
		kernels: make(map[primitive.Kind]engine.Kernel),
		cfg:     cfg,
	}

	cpu.Register(primitive.KindConvolution, cpu.convolution)
	cpu.Register(primitive.KindReorder, reorder)
	cpu.Register(primitive.KindConcatenation, concatenation)
	cpu.Register(primitive.KindTile, tile)
	cpu.Register(primitive.KindReshape, reshape)
	cpu.Register(primitive.KindActivation, cpu.activation)

	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Allocate returns a zeroed host buffer.
func (cpu *CPUBackend) Allocate(l layout.Layout) (*memory.Buffer, error) {
	return memory.Allocate(l)
}

// Register adds or replaces the kernel for a kind.
func (cpu *CPUBackend) Register(kind primitive.Kind, k engine.Kernel) {
	cpu.kernels[kind] = k
}

// Kernel returns the kernel for a kind.
func (cpu *CPUBackend) Kernel(kind primitive.Kind) (engine.Kernel, bool) {
	k, ok := cpu.kernels[kind]
	return k, ok
}

// SupportedKinds returns the kinds with a registered kernel.
func (cpu *CPUBackend) SupportedKinds() []primitive.Kind {
	kinds := make([]primitive.Kind, 0, len(cpu.kernels))
	for k := range cpu.kernels {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
