// Package network builds executable networks from topologies and runs them.
//
// Compile resolves a topology through the compiler, checks that the backend
// provides a kernel for every primitive, and allocates one output buffer per
// primitive. The resulting Network is bound to input data with SetInputData
// and run with Execute.
package network

import (
	"sync"

	"github.com/born-ml/layoutnet/internal/compiler"
	"github.com/born-ml/layoutnet/internal/engine"
	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Network is a compiled topology with allocated buffers.
//
// Its structure is immutable; buffers are overwritten by every run.
// Execute calls are serialized.
type Network struct {
	prog    *compiler.Program
	backend engine.Backend
	kernels []engine.Kernel
	buffers []*memory.Buffer
	inputs  []int
	cfg     parallel.Config
	log     logrus.FieldLogger

	run   sync.Mutex // serializes Execute
	mu    sync.Mutex // guards state and bound
	state State
	bound map[int]bool
}

// Compile builds a Network for top on backend. top is not modified.
func Compile(top *topology.Topology, opts compiler.BuildOptions, backend engine.Backend) (*Network, error) {
	prog, err := compiler.Build(top, opts)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	n := prog.Topology.Len()
	net := &Network{
		prog:    prog,
		backend: backend,
		kernels: make([]engine.Kernel, n),
		buffers: make([]*memory.Buffer, n),
		cfg:     opts.Parallel,
		log:     log.WithFields(logrus.Fields{"component": "network", "backend": backend.Name()}),
		bound:   make(map[int]bool),
	}

	for _, i := range prog.Graph.Order {
		p := prog.Topology.At(i)
		if engine.NeedsKernel(p.Kind()) {
			k, ok := backend.Kernel(p.Kind())
			if !ok {
				return nil, topology.NewGraphError(topology.ErrUnsupportedPrimitive, p.ID,
					"backend %s has no %s kernel", backend.Name(), p.Kind())
			}
			net.kernels[i] = k
		}

		switch d := p.Desc.(type) {
		case primitive.Data:
			net.buffers[i] = d.Mem
			continue
		case primitive.InputLayout:
			net.inputs = append(net.inputs, i)
		}

		buf, err := backend.Allocate(prog.Layouts[i])
		if err != nil {
			return nil, errors.Wrapf(err, "allocate %s for %q", prog.Layouts[i], p.ID)
		}
		net.buffers[i] = buf
	}

	if len(net.inputs) == 0 {
		net.state = StateBound
	}

	net.log.WithFields(logrus.Fields{
		"primitives":  n,
		"synthesized": len(prog.SynthesizedIDs()),
		"inputs":      len(net.inputs),
	}).Debug("network compiled")
	return net, nil
}

// PrimitiveIDs returns every primitive id in execution order.
func (n *Network) PrimitiveIDs() []string {
	return n.prog.IDs()
}

// OrganicIDs returns the user-declared primitive ids in execution order.
func (n *Network) OrganicIDs() []string {
	return n.prog.OrganicIDs()
}

// SynthesizedIDs returns the compiler-inserted reorder ids in execution order.
func (n *Network) SynthesizedIDs() []string {
	return n.prog.SynthesizedIDs()
}

// OptimizedOut returns user primitives removed by optional refinements.
func (n *Network) OptimizedOut() []string {
	return append([]string(nil), n.prog.OptimizedOut...)
}

// Outputs returns the ids Execute returns buffers for.
func (n *Network) Outputs() []string {
	ids := make([]string, len(n.prog.Outputs))
	for k, i := range n.prog.Outputs {
		ids[k] = n.prog.Topology.At(i).ID
	}
	return ids
}

// Inputs returns the input_layout ids in execution order.
func (n *Network) Inputs() []string {
	ids := make([]string, len(n.inputs))
	for k, i := range n.inputs {
		ids[k] = n.prog.Topology.At(i).ID
	}
	return ids
}

// Layout returns the resolved output layout of a primitive.
func (n *Network) Layout(id string) (layout.Layout, bool) {
	i, ok := n.prog.Topology.Index(id)
	if !ok {
		return layout.Layout{}, false
	}
	return n.prog.Layouts[i], true
}

// Topology returns a copy of the reorder-augmented topology. Compiling it
// again inserts no further reorders.
func (n *Network) Topology() *topology.Topology {
	return n.prog.Topology.Clone()
}

// Backend returns the backend the network runs on.
func (n *Network) Backend() engine.Backend {
	return n.backend
}

// State returns the current run state.
func (n *Network) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}
