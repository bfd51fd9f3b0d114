// Package topology holds the user-specified dependency graph of primitives.
//
// Primitives live in an arena indexed by insertion order with a name index on
// top. Insertion order is significant: it breaks ties when scheduling.
// A Topology must not be mutated concurrently.
package topology

import (
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/pkg/errors"
)

// Topology is a mutable graph of primitives keyed by unique id.
type Topology struct {
	prims []*primitive.Primitive
	index map[string]int
}

// New creates an empty topology.
func New() *Topology {
	return &Topology{index: make(map[string]int)}
}

// Add appends p. Every input of p must already be present. Re-adding an
// identical primitive is a no-op; a different primitive with the same id
// fails with ErrNameConflict.
func (t *Topology) Add(p *primitive.Primitive) error {
	return t.add(p, true)
}

// Declare appends p without resolving its inputs; references are checked
// when the topology is ordered or compiled. Model importers that emit nodes
// out of dependency order use Declare.
func (t *Topology) Declare(p *primitive.Primitive) error {
	return t.add(p, false)
}

// MustAdd is like Add but panics on error.
func (t *Topology) MustAdd(prims ...*primitive.Primitive) *Topology {
	for _, p := range prims {
		if err := t.Add(p); err != nil {
			panic(err)
		}
	}
	return t
}

func (t *Topology) add(p *primitive.Primitive, strict bool) error {
	if p == nil {
		return errors.Wrap(ErrInvalidPrimitive, "nil primitive")
	}
	if err := p.Validate(); err != nil {
		return &GraphError{Err: ErrInvalidPrimitive, Primitive: p.ID, Details: err.Error()}
	}
	if i, ok := t.index[p.ID]; ok {
		if t.prims[i].SameDefinition(p) {
			return nil
		}
		return NewGraphError(ErrNameConflict, p.ID, "already defined as %s", t.prims[i])
	}
	if strict {
		for _, in := range p.Inputs {
			if _, ok := t.index[in]; !ok {
				return NewGraphError(ErrUnresolvedReference, p.ID, "input %q not found", in)
			}
		}
	}

	t.index[p.ID] = len(t.prims)
	t.prims = append(t.prims, p.Clone())
	return nil
}

// Get returns the primitive with the given id.
func (t *Topology) Get(id string) (*primitive.Primitive, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.prims[i], true
}

// Index returns the insertion index of id.
func (t *Topology) Index(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// At returns the primitive at insertion index i.
func (t *Topology) At(i int) *primitive.Primitive {
	return t.prims[i]
}

// Len returns the number of primitives.
func (t *Topology) Len() int {
	return len(t.prims)
}

// IDs returns primitive ids in insertion order.
func (t *Topology) IDs() []string {
	ids := make([]string, len(t.prims))
	for i, p := range t.prims {
		ids[i] = p.ID
	}
	return ids
}

// Primitives returns the primitives in insertion order.
// The returned primitives must not be modified.
func (t *Topology) Primitives() []*primitive.Primitive {
	return t.prims
}

// Clone returns a deep copy of the topology.
func (t *Topology) Clone() *Topology {
	c := &Topology{
		prims: make([]*primitive.Primitive, len(t.prims)),
		index: make(map[string]int, len(t.index)),
	}
	for i, p := range t.prims {
		c.prims[i] = p.Clone()
		c.index[p.ID] = i
	}
	return c
}
