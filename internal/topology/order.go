package topology

import (
	"container/heap"
	"slices"
)

// Graph is the resolved dependency structure of a topology, by insertion index.
type Graph struct {
	// Inputs[i][k] is the producer index of input slot k of primitive i.
	Inputs [][]int
	// Consumers[i] lists primitives reading i, in insertion order, one entry per edge.
	Consumers [][]int
	// Order is a stable topological order.
	Order []int
}

// Resolve resolves every input reference and computes a stable topological
// order: among ready primitives the one added first runs first.
// It fails with ErrUnresolvedReference or ErrCycle.
func (t *Topology) Resolve() (*Graph, error) {
	n := len(t.prims)
	g := &Graph{
		Inputs:    make([][]int, n),
		Consumers: make([][]int, n),
	}
	for i, p := range t.prims {
		g.Inputs[i] = make([]int, len(p.Inputs))
		for k, in := range p.Inputs {
			j, ok := t.index[in]
			if !ok {
				return nil, NewGraphError(ErrUnresolvedReference, p.ID, "input %q not found", in)
			}
			g.Inputs[i][k] = j
			g.Consumers[j] = append(g.Consumers[j], i)
		}
	}

	inDegree := make([]int, n)
	ready := &indexHeap{}
	for i := range t.prims {
		inDegree[i] = len(g.Inputs[i])
		if inDegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	g.Order = make([]int, 0, n)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		g.Order = append(g.Order, i)
		for _, c := range g.Consumers[i] {
			inDegree[c]--
			if inDegree[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}

	if len(g.Order) != n {
		chain := t.findCycle(g, inDegree)
		return nil, &GraphError{
			Err:       ErrCycle,
			Primitive: chain[0],
			Chain:     chain,
			Details:   "dependency graph is not acyclic",
		}
	}
	return g, nil
}

// Order returns primitive ids in a stable topological order.
func (t *Topology) Order() ([]string, error) {
	g, err := t.Resolve()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(g.Order))
	for k, i := range g.Order {
		ids[k] = t.prims[i].ID
	}
	return ids, nil
}

// findCycle walks input edges among unscheduled primitives until a node
// repeats and returns the cycle in dependency order.
func (t *Topology) findCycle(g *Graph, inDegree []int) []string {
	start := -1
	for i, d := range inDegree {
		if d > 0 {
			start = i
			break
		}
	}

	pos := make(map[int]int)
	var path []int
	for cur := start; ; {
		if at, seen := pos[cur]; seen {
			path = path[at:]
			break
		}
		pos[cur] = len(path)
		path = append(path, cur)
		for _, j := range g.Inputs[cur] {
			if inDegree[j] > 0 {
				cur = j
				break
			}
		}
	}

	// path follows producer edges; reverse it to read producer -> consumer.
	slices.Reverse(path)
	chain := make([]string, 0, len(path)+1)
	for _, i := range path {
		chain = append(chain, t.prims[i].ID)
	}
	return append(chain, chain[0])
}

// indexHeap is a min-heap of insertion indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *indexHeap) Push(x any) { *h = append(*h, x.(int)) }

func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
