package compiler

import (
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/sirupsen/logrus"
)

// source is where a consumer slot reads from: an original primitive
// (reorder < 0) or a planned reorder.
type source struct {
	prim    int
	reorder int
}

func direct(i int) source { return source{prim: i, reorder: -1} }

type plannedReorder struct {
	id            string
	from          source
	layout        layout.Layout
	firstConsumer int
}

type reorderKey struct {
	from   source
	format layout.Format
	dtype  layout.DataType
}

// reorderPlan is the read-only result of analyzing the original graph.
type reorderPlan struct {
	sources  [][]source
	layouts  []layout.Layout
	reorders []plannedReorder
	removed  []bool
	alias    []source // for removed primitives: what their consumers read instead
}

// addReorders is the reorder-insertion pass. It plans every required reorder
// on the untouched input graph, then materializes a new augmented topology.
type addReorders struct {
	src     *topology.Topology
	graph   *topology.Graph
	opts    *BuildOptions
	outputs map[string]bool
	log     logrus.FieldLogger

	plan  reorderPlan
	dedup map[reorderKey]int
	names map[string]bool
}

func newAddReorders(src *topology.Topology, g *topology.Graph, opts *BuildOptions) *addReorders {
	n := src.Len()
	p := &addReorders{
		src:     src,
		graph:   g,
		opts:    opts,
		outputs: make(map[string]bool, len(opts.Outputs)),
		log:     opts.logger().WithField("pass", "add_reorders"),
		plan: reorderPlan{
			sources: make([][]source, n),
			layouts: make([]layout.Layout, n),
			removed: make([]bool, n),
			alias:   make([]source, n),
		},
		dedup: make(map[reorderKey]int),
		names: make(map[string]bool, n),
	}
	for _, id := range opts.Outputs {
		p.outputs[id] = true
	}
	for _, id := range src.IDs() {
		p.names[id] = true
	}
	return p
}

// run plans and materializes. It returns the augmented topology.
func (p *addReorders) run() (*topology.Topology, error) {
	for _, i := range p.graph.Order {
		if err := p.visit(i); err != nil {
			return nil, err
		}
	}
	return p.materialize()
}

func (p *addReorders) layoutOf(s source) layout.Layout {
	if s.reorder >= 0 {
		return p.plan.reorders[s.reorder].layout
	}
	return p.plan.layouts[s.prim]
}

func (p *addReorders) nameOf(s source) string {
	if s.reorder >= 0 {
		return p.plan.reorders[s.reorder].id
	}
	return p.src.At(s.prim).ID
}

// producer returns what a consumer of primitive j reads, following removed
// no-op reorders.
func (p *addReorders) producer(j int) source {
	if p.plan.removed[j] {
		return p.plan.alias[j]
	}
	return direct(j)
}

func (p *addReorders) visit(i int) error {
	prim := p.src.At(i)
	inputs := p.graph.Inputs[i]
	p.plan.sources[i] = make([]source, len(inputs))
	inLayouts := make([]layout.Layout, len(inputs))

	for k, j := range inputs {
		s, err := p.resolveSlot(prim, i, k, p.producer(j))
		if err != nil {
			return err
		}
		p.plan.sources[i][k] = s
		inLayouts[k] = p.layoutOf(s)
	}

	out, err := prim.OutputLayout(inLayouts)
	if err != nil {
		chain := make([]string, 0, len(inputs)+1)
		for _, s := range p.plan.sources[i] {
			chain = append(chain, p.nameOf(s))
		}
		return &topology.GraphError{
			Err:       topology.ErrLayoutIncompatible,
			Primitive: prim.ID,
			Chain:     append(chain, prim.ID),
			Details:   err.Error(),
		}
	}
	p.plan.layouts[i] = out

	if p.opts.OptimizeData && p.isNoopReorder(prim, i, inLayouts) {
		p.plan.removed[i] = true
		p.plan.alias[i] = p.plan.sources[i][0]
		p.log.WithFields(logrus.Fields{
			"reorder": prim.ID,
			"layout":  out.String(),
		}).Debug("removing no-op reorder")
	}
	return nil
}

// resolveSlot decides what slot k of consumer i reads from, planning a reorder
// when the producer's format is not accepted.
func (p *addReorders) resolveSlot(prim *primitive.Primitive, i, k int, from source) (source, error) {
	have := p.layoutOf(from)
	policy := prim.SlotPolicy(k)
	if policy.Accepts(have.Format) {
		return from, nil
	}

	want := layout.New(have.DataType, policy.Target(have.Format), have.Shape)
	fields := logrus.Fields{
		"producer": p.nameOf(from),
		"consumer": prim.ID,
		"slot":     k,
		"from":     have.Format.String(),
		"to":       want.Format.String(),
	}

	if p.opts.OptimizeData {
		if s, ok := p.bypass(from, want); ok {
			p.log.WithFields(fields).WithField("source", p.nameOf(s)).Debug("bypassing reorder chain")
			return s, nil
		}
	}

	key := reorderKey{from: from, format: want.Format, dtype: want.DataType}
	if r, ok := p.dedup[key]; ok {
		p.log.WithFields(fields).WithField("reorder", p.plan.reorders[r].id).Debug("reusing reorder")
		return source{prim: from.prim, reorder: r}, nil
	}

	if err := layout.CanReorder(have, want); err != nil {
		return source{}, &topology.GraphError{
			Err:       topology.ErrLayoutIncompatible,
			Primitive: prim.ID,
			Chain:     []string{p.nameOf(from), prim.ID},
			Details:   fmt.Sprintf("input %d requires %s: %v", k, policy, err),
		}
	}

	r := len(p.plan.reorders)
	id := p.uniqueName(fmt.Sprintf("%s_%s_reorder", p.nameOf(from), prim.ID))
	p.plan.reorders = append(p.plan.reorders, plannedReorder{
		id:            id,
		from:          from,
		layout:        want,
		firstConsumer: i,
	})
	p.dedup[key] = r
	p.log.WithFields(fields).WithField("reorder", id).Debug("inserting reorder")
	return source{prim: from.prim, reorder: r}, nil
}

// bypass finds the input of an organic reorder producer when that input
// already has the wanted layout, so reorder chains collapse instead of
// growing. from is always a direct source: producer never yields a
// synthesized reorder.
func (p *addReorders) bypass(from source, want layout.Layout) (source, bool) {
	if p.src.At(from.prim).Kind() != primitive.KindReorder {
		return source{}, false
	}
	upstream := p.plan.sources[from.prim][0]
	if !layout.Compatible(p.layoutOf(upstream), want) {
		return source{}, false
	}
	return upstream, true
}

// isNoopReorder reports whether an organic reorder leaves data untouched and
// can be removed. Requested outputs and terminal primitives are kept.
func (p *addReorders) isNoopReorder(prim *primitive.Primitive, i int, in []layout.Layout) bool {
	if prim.Kind() != primitive.KindReorder || prim.Synthesized || p.outputs[prim.ID] {
		return false
	}
	if len(p.graph.Consumers[i]) == 0 {
		return false
	}
	return layout.Compatible(in[0], p.plan.layouts[i])
}

func (p *addReorders) uniqueName(base string) string {
	name := base
	for n := 1; p.names[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	p.names[name] = true
	return name
}

// materialize builds the augmented topology: original primitives in insertion
// order with rewired inputs, each planned reorder placed right before its
// first consumer.
func (p *addReorders) materialize() (*topology.Topology, error) {
	byConsumer := make(map[int][]int)
	for r, pr := range p.plan.reorders {
		byConsumer[pr.firstConsumer] = append(byConsumer[pr.firstConsumer], r)
	}

	out := topology.New()
	for i, orig := range p.src.Primitives() {
		for _, r := range byConsumer[i] {
			pr := p.plan.reorders[r]
			reorder := primitive.NewReorder(pr.id, p.nameOf(pr.from), pr.layout.Format, pr.layout.DataType)
			reorder.Synthesized = true
			if err := out.Declare(reorder); err != nil {
				return nil, err
			}
		}
		if p.plan.removed[i] {
			continue
		}

		prim := orig.Clone()
		for k, s := range p.plan.sources[i] {
			prim.Inputs[k] = p.nameOf(s)
		}
		if err := out.Declare(prim); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// removedIDs returns the ids of primitives dropped by the pass.
func (p *addReorders) removedIDs() []string {
	var ids []string
	for i, removed := range p.plan.removed {
		if removed {
			ids = append(ids, p.src.At(i).ID)
		}
	}
	return ids
}
