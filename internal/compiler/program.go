// Package compiler turns a topology into an ordered, layout-resolved program.
//
// Compilation runs in three steps:
//  1. resolve references and order the user graph (cycles are rejected),
//  2. run the reorder-insertion pass, which plans every reorder on the
//     untouched graph and then materializes an augmented topology,
//  3. re-order the augmented graph and resolve every output layout.
//
// No partial program is returned on error.
package compiler

import (
	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/sirupsen/logrus"
)

// Program is a compiled, topologically ordered graph.
type Program struct {
	// Topology is the reorder-augmented topology. Compiling it again
	// inserts nothing new.
	Topology *topology.Topology
	// Graph holds resolved edges and the execution order, by Topology index.
	Graph *topology.Graph
	// Layouts holds the output layout of every primitive, by Topology index.
	Layouts []layout.Layout
	// Outputs lists the Topology indices whose buffers are returned.
	Outputs []int
	// OptimizedOut lists user primitives removed by optional refinements.
	OptimizedOut []string
}

// Build compiles top. top is not modified.
func Build(top *topology.Topology, opts BuildOptions) (*Program, error) {
	log := opts.logger().WithField("component", "compiler")

	g, err := top.Resolve()
	if err != nil {
		return nil, err
	}
	for _, id := range opts.Outputs {
		if _, ok := top.Get(id); !ok {
			return nil, topology.NewGraphError(topology.ErrUnresolvedReference, id, "requested output not found")
		}
	}

	pass := newAddReorders(top, g, &opts)
	augmented, err := pass.run()
	if err != nil {
		return nil, err
	}

	ag, err := augmented.Resolve()
	if err != nil {
		return nil, err
	}

	prog := &Program{
		Topology:     augmented,
		Graph:        ag,
		Layouts:      make([]layout.Layout, augmented.Len()),
		OptimizedOut: pass.removedIDs(),
	}
	for _, i := range ag.Order {
		p := augmented.At(i)
		in := make([]layout.Layout, len(ag.Inputs[i]))
		for k, j := range ag.Inputs[i] {
			in[k] = prog.Layouts[j]
		}
		out, err := p.OutputLayout(in)
		if err != nil {
			return nil, &topology.GraphError{Err: topology.ErrLayoutIncompatible, Primitive: p.ID, Details: err.Error()}
		}
		prog.Layouts[i] = out
	}

	prog.Outputs = outputs(top, g, augmented, opts.Outputs)

	log.WithFields(logrus.Fields{
		"primitives":    augmented.Len(),
		"synthesized":   len(prog.SynthesizedIDs()),
		"optimized_out": len(prog.OptimizedOut),
	}).Debug("compiled topology")
	return prog, nil
}

// outputs picks requested ids, or the primitives of the user graph that have
// no consumers.
func outputs(top *topology.Topology, g *topology.Graph, augmented *topology.Topology, requested []string) []int {
	var ids []string
	if len(requested) > 0 {
		ids = requested
	} else {
		for _, i := range g.Order {
			if len(g.Consumers[i]) == 0 {
				ids = append(ids, top.At(i).ID)
			}
		}
	}

	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		if i, ok := augmented.Index(id); ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// IDs returns primitive ids in execution order.
func (p *Program) IDs() []string {
	return p.filter(func(*primitive.Primitive) bool { return true })
}

// OrganicIDs returns user-declared primitive ids in execution order.
func (p *Program) OrganicIDs() []string {
	return p.filter(func(prim *primitive.Primitive) bool { return !prim.Synthesized })
}

// SynthesizedIDs returns compiler-inserted primitive ids in execution order.
func (p *Program) SynthesizedIDs() []string {
	return p.filter(func(prim *primitive.Primitive) bool { return prim.Synthesized })
}

func (p *Program) filter(keep func(*primitive.Primitive) bool) []string {
	ids := make([]string, 0, len(p.Graph.Order))
	for _, i := range p.Graph.Order {
		if prim := p.Topology.At(i); keep(prim) {
			ids = append(ids, prim.ID)
		}
	}
	return ids
}
