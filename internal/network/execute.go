package network

import (
	"context"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SetInputData copies buf into the input buffer of the input_layout id.
// buf must have exactly the declared layout. Inputs may be rebound between
// runs but not while one is in progress.
func (n *Network) SetInputData(id string, buf *memory.Buffer) error {
	i, ok := n.prog.Topology.Index(id)
	if !ok {
		return topology.NewGraphError(topology.ErrUnresolvedReference, id, "no such input")
	}
	if kind := n.prog.Topology.At(i).Kind(); kind != primitive.KindInputLayout {
		return topology.NewGraphError(topology.ErrInvalidPrimitive, id, "%s is not an input_layout", kind)
	}
	if buf == nil {
		return topology.NewGraphError(topology.ErrInvalidPrimitive, id, "nil buffer")
	}
	if want := n.prog.Layouts[i]; !layout.Compatible(buf.Layout(), want) {
		return topology.NewGraphError(topology.ErrLayoutIncompatible, id, "got %s, want %s", buf.Layout(), want)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateRunning {
		return errors.Wrapf(ErrInvalidState, "bind %q while running", id)
	}
	if err := n.buffers[i].CopyFrom(buf); err != nil {
		return errors.Wrapf(err, "bind %q", id)
	}
	n.bound[i] = true
	if n.state == StateIdle && len(n.bound) == len(n.inputs) {
		n.state = StateBound
	}
	return nil
}

// Execute runs every primitive in dependency order and returns the output
// buffers keyed by id. Independent primitives run concurrently, bounded by
// the parallel config the network was compiled with.
//
// The returned buffers belong to the network and are overwritten by the next
// run. Cancelling ctx stops dispatching new primitives; in-flight ones
// finish first.
func (n *Network) Execute(ctx context.Context) (map[string]*memory.Buffer, error) {
	n.run.Lock()
	defer n.run.Unlock()

	if err := n.begin(); err != nil {
		return nil, err
	}

	g := n.prog.Graph
	err := parallel.RunGraph(ctx, g.Inputs, g.Order, n.cfg, n.runPrimitive)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.state = StateFailed
		n.log.WithError(err).Debug("run failed")
		return nil, err
	}
	n.state = StateCompleted

	out := make(map[string]*memory.Buffer, len(n.prog.Outputs))
	for _, i := range n.prog.Outputs {
		out[n.prog.Topology.At(i).ID] = n.buffers[i]
	}
	return out, nil
}

// begin checks every input is bound and enters StateRunning.
func (n *Network) begin() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, i := range n.inputs {
		if !n.bound[i] {
			return &ExecutionError{Err: ErrUnboundInput, Primitive: n.prog.Topology.At(i).ID}
		}
	}
	if n.state == StateRunning {
		return errors.Wrap(ErrInvalidState, "already running")
	}
	n.state = StateRunning
	return nil
}

func (n *Network) runPrimitive(ctx context.Context, i int) error {
	k := n.kernels[i]
	if k == nil {
		return nil
	}

	p := n.prog.Topology.At(i)
	deps := n.prog.Graph.Inputs[i]
	in := make([]*memory.Buffer, len(deps))
	for s, j := range deps {
		in[s] = n.buffers[j]
	}

	n.log.WithFields(logrus.Fields{"primitive": p.ID, "kind": p.Kind()}).Debug("dispatch")
	if err := k(ctx, p, in, n.buffers[i]); err != nil {
		return &ExecutionError{Err: ErrBackendExecution, Primitive: p.ID, Cause: err}
	}
	return nil
}
