package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestForBatch(t *testing.T) {
	cfg := DefaultConfig()

	batch, features := 4, 8
	results := make([][]bool, batch)
	for b := range results {
		results[b] = make([]bool, features)
	}

	ForBatch(batch, features, func(b, c int) {
		results[b][c] = true
	}, cfg)

	for b := 0; b < batch; b++ {
		for c := 0; c < features; c++ {
			assert.True(t, results[b][c], "missing result at [%d][%d]", b, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(100), counter)
}

// diamond: 0 -> {1, 2} -> 3, plus an independent 4.
func diamond() (deps [][]int, order []int) {
	return [][]int{{}, {0}, {0}, {1, 2}, {}}, []int{0, 1, 2, 3, 4}
}

func parallelConfig() Config {
	return Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
}

func TestRunGraph_RespectsDependencies(t *testing.T) {
	for name, cfg := range map[string]Config{"sequential": {}, "parallel": parallelConfig()} {
		t.Run(name, func(t *testing.T) {
			deps, order := diamond()
			finished := make([]atomic.Bool, len(deps))

			err := RunGraph(context.Background(), deps, order, cfg, func(_ context.Context, i int) error {
				for _, d := range deps[i] {
					if !finished[d].Load() {
						return errors.Errorf("task %d started before dependency %d", i, d)
					}
				}
				finished[i].Store(true)
				return nil
			})
			require.NoError(t, err)
			for i := range finished {
				assert.True(t, finished[i].Load(), "task %d did not run", i)
			}
		})
	}
}

func TestRunGraph_RunsIndependentTasksConcurrently(t *testing.T) {
	deps := [][]int{{}, {}}
	var wg sync.WaitGroup
	wg.Add(2)

	// Each task waits for the other to start; a sequential run would deadlock.
	err := RunGraph(context.Background(), deps, []int{0, 1}, parallelConfig(), func(_ context.Context, _ int) error {
		wg.Done()
		wg.Wait()
		return nil
	})
	require.NoError(t, err)
}

func TestRunGraph_Error(t *testing.T) {
	for name, cfg := range map[string]Config{"sequential": {}, "parallel": parallelConfig()} {
		t.Run(name, func(t *testing.T) {
			deps, order := diamond()
			boom := errors.New("boom")
			var ran3 atomic.Bool

			err := RunGraph(context.Background(), deps, order, cfg, func(_ context.Context, i int) error {
				switch i {
				case 1:
					return boom
				case 3:
					ran3.Store(true)
				}
				return nil
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, boom))
			assert.False(t, ran3.Load(), "dependent of a failed task must not run")
		})
	}
}

func TestRunGraph_Cancel(t *testing.T) {
	for name, cfg := range map[string]Config{"sequential": {}, "parallel": parallelConfig()} {
		t.Run(name, func(t *testing.T) {
			deps, order := [][]int{{}, {0}, {1}}, []int{0, 1, 2}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var ran []int
			var mu sync.Mutex
			err := RunGraph(ctx, deps, order, cfg, func(_ context.Context, i int) error {
				mu.Lock()
				ran = append(ran, i)
				mu.Unlock()
				if i == 0 {
					cancel()
				}
				return nil
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, context.Canceled))
			assert.Equal(t, []int{0}, ran, "in-flight task finishes, nothing new starts")
		})
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
