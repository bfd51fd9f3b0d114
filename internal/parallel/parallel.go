// Package parallel provides parallel execution utilities: data-parallel loops
// for kernels and a dependency-counted dispatcher for task graphs.
package parallel

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"workers"`        // Number of worker goroutines to use.
	MinChunkSize int  `yaml:"min_chunk_size"` // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

func (cfg Config) workers() int {
	if cfg.NumWorkers < 1 {
		return 1
	}
	return cfg.NumWorkers
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize || cfg.workers() == 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.workers()-1)/cfg.workers(), cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates the batch*features space, e.g. per output feature map.
func ForBatch(batch, features int, f func(b, c int), cfg Config) {
	n := batch * features
	For(n, func(k int) {
		f(k/features, k%features)
	}, cfg)
}

// TaskFunc runs task i of a graph.
type TaskFunc func(ctx context.Context, i int) error

// RunGraph runs tasks 0..len(deps)-1 where deps[i] lists the tasks i waits
// for. order must be a topological order; it is the sequential schedule and
// the dispatch preference among ready tasks. A task starts only after all of
// its dependencies completed. Independent tasks run concurrently on up to
// cfg.NumWorkers goroutines.
//
// The first task error stops dispatching and is returned once in-flight tasks
// finished. Cancelling ctx also stops dispatching; RunGraph then returns
// ctx.Err() after in-flight tasks finished.
func RunGraph(ctx context.Context, deps [][]int, order []int, cfg Config, fn TaskFunc) error {
	if !cfg.Enabled || cfg.workers() == 1 {
		for _, i := range order {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	n := len(deps)
	rank := make([]int, n)
	for r, i := range order {
		rank[i] = r
	}

	pending := make([]int, n)
	dependents := make([][]int, n)
	for i, ds := range deps {
		pending[i] = len(ds)
		for _, d := range ds {
			dependents[d] = append(dependents[d], i)
		}
	}

	byRank := func(a, b int) int { return cmp.Compare(rank[a], rank[b]) }
	var ready []int
	for _, i := range order {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	done := make(chan int, n)

	completed := 0
dispatch:
	for completed < n {
		for len(ready) > 0 {
			if gctx.Err() != nil {
				break dispatch
			}
			i := ready[0]
			ready = ready[1:]
			g.Go(func() error {
				if err := fn(gctx, i); err != nil {
					return err
				}
				done <- i
				return nil
			})
		}

		select {
		case i := <-done:
			completed++
			for _, c := range dependents[i] {
				pending[c]--
				if pending[c] == 0 {
					at, _ := slices.BinarySearchFunc(ready, c, byRank)
					ready = slices.Insert(ready, at, c)
				}
			}
		case <-gctx.Done():
			break dispatch
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
