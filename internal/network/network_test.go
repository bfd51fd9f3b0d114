package network

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/born-ml/layoutnet/internal/backend/cpu"
	"github.com/born-ml/layoutnet/internal/compiler"
	"github.com/born-ml/layoutnet/internal/engine"
	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(format layout.Format, b, f, x, y int) layout.Layout {
	return layout.New(layout.F32, format, layout.NewShape(b, f, x, y))
}

func buffer(t *testing.T, l layout.Layout, values ...float32) *memory.Buffer {
	t.Helper()
	b, err := memory.FromFloat32(l, values)
	require.NoError(t, err)
	return b
}

func quietOptions(opts ...compiler.Option) compiler.BuildOptions {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return compiler.NewBuildOptions(append([]compiler.Option{compiler.Logger(l)}, opts...)...)
}

func twoConvolutions(t *testing.T) *topology.Topology {
	return topology.New().MustAdd(
		primitive.NewInputLayout("input", f32(layout.YXFB, 1, 1, 2, 2)),
		primitive.NewData("weights1", buffer(t, f32(layout.YXIO, 1, 1, 1, 2), 2.1, 3.1)),
		primitive.NewData("weights2", buffer(t, f32(layout.OIYX, 1, 1, 1, 2), 1.1, 0.1)),
		primitive.NewConvolution("conv1", "input", "weights1", ""),
		primitive.NewReorder("reorder", "input", layout.BYXF, layout.F32),
		primitive.NewConvolution("conv2", "reorder", "weights2", ""),
		primitive.NewConcatenation("concat", []string{"conv1", "conv2"}, layout.AxisFeature),
	)
}

func reshapeAndTile() *topology.Topology {
	return topology.New().MustAdd(
		primitive.NewInputLayout("input", f32(layout.BYXF, 1, 2, 2, 1)),
		primitive.NewReshape("reshape", "input", layout.NewShape(2, 1, 2, 1)),
		primitive.NewTile("tile", "reshape", layout.AxisY, 4),
	)
}

func compile(t *testing.T, top *topology.Topology, opts ...compiler.Option) *Network {
	t.Helper()
	net, err := Compile(top, quietOptions(opts...), cpu.New())
	require.NoError(t, err)
	return net
}

func TestNetwork_TwoConvolutionsConcatenated(t *testing.T) {
	for _, workers := range []int{1, 4} {
		net := compile(t, twoConvolutions(t), compiler.OptimizeData(false), compiler.Workers(workers))
		assert.Len(t, net.PrimitiveIDs(), 7)
		assert.Empty(t, net.SynthesizedIDs())

		require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.YXFB, 1, 1, 2, 2), 1.1, 1.2, 1.3, 1.4)))
		out, err := net.Execute(context.Background())
		require.NoError(t, err)

		require.Contains(t, out, "concat")
		got := out["concat"].AsFloat32()
		want := []float32{6.34, 1.34, 6.86, 1.46}
		require.Len(t, got, len(want))
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-3, "element %d", i)
		}
	}
}

func TestNetwork_ReshapeThenTile(t *testing.T) {
	net := compile(t, reshapeAndTile())
	assert.Equal(t, []string{"input", "reshape", "reshape_tile_reorder", "tile"}, net.PrimitiveIDs())
	assert.Equal(t, []string{"reshape_tile_reorder"}, net.SynthesizedIDs())
	assert.Equal(t, []string{"tile"}, net.Outputs())

	require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 0, 5, 1.5)))
	out, err := net.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []float32{
		1, 0, 1, 0, 1, 0, 1, 0,
		5, 1.5, 5, 1.5, 5, 1.5, 5, 1.5,
	}, out["tile"].AsFloat32())

	l, ok := net.Layout("tile")
	require.True(t, ok)
	assert.Equal(t, f32(layout.BFYX, 2, 1, 2, 4), l)
}

func TestNetwork_UnboundInput(t *testing.T) {
	net := compile(t, reshapeAndTile())
	assert.Equal(t, StateIdle, net.State())

	_, err := net.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnboundInput))

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "input", execErr.Primitive)
	assert.Equal(t, StateIdle, net.State())
}

func TestNetwork_SetInputDataErrors(t *testing.T) {
	net := compile(t, reshapeAndTile())

	err := net.SetInputData("missing", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 2, 3, 4))
	assert.True(t, errors.Is(err, topology.ErrUnresolvedReference))

	err = net.SetInputData("reshape", buffer(t, f32(layout.BYXF, 2, 1, 2, 1), 1, 2, 3, 4))
	assert.True(t, errors.Is(err, topology.ErrInvalidPrimitive))

	err = net.SetInputData("input", buffer(t, f32(layout.BFYX, 1, 2, 2, 1), 1, 2, 3, 4))
	assert.True(t, errors.Is(err, topology.ErrLayoutIncompatible))

	err = net.SetInputData("input", nil)
	assert.True(t, errors.Is(err, topology.ErrInvalidPrimitive))

	assert.Equal(t, StateIdle, net.State())
}

func TestNetwork_StateTransitions(t *testing.T) {
	net := compile(t, reshapeAndTile())
	assert.Equal(t, StateIdle, net.State())

	require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 0, 5, 1.5)))
	assert.Equal(t, StateBound, net.State())

	_, err := net.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, net.State())

	// Rebinding and rerunning reuses the network.
	require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 2, 2, 2, 2)))
	out, err := net.Execute(context.Background())
	require.NoError(t, err)
	for _, v := range out["tile"].AsFloat32() {
		assert.Equal(t, float32(2), v)
	}
}

func TestNetwork_NoInputsStartsBound(t *testing.T) {
	top := topology.New().MustAdd(
		primitive.NewData("const", buffer(t, f32(layout.BFYX, 1, 1, 2, 1), -1, 3)),
		primitive.NewActivation("relu", "const", primitive.ActivationReLU),
	)
	net := compile(t, top)
	assert.Equal(t, StateBound, net.State())
	assert.Empty(t, net.Inputs())

	out, err := net.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3}, out["relu"].AsFloat32())
}

func TestNetwork_RequestedOutputs(t *testing.T) {
	net := compile(t, twoConvolutions(t), compiler.Outputs("conv1", "conv2"))
	assert.Equal(t, []string{"conv1", "conv2"}, net.Outputs())

	require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.YXFB, 1, 1, 2, 2), 1.1, 1.2, 1.3, 1.4)))
	out, err := net.Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.InDelta(t, 6.34, out["conv1"].At(layout.Coord{}), 1e-3)
	assert.InDelta(t, 1.46, out["conv2"].At(layout.Coord{X: 1}), 1e-3)
}

// limitedBackend hides some kinds of an underlying backend.
type limitedBackend struct {
	engine.Backend
	hidden primitive.Kind
}

func (b limitedBackend) Kernel(kind primitive.Kind) (engine.Kernel, bool) {
	if kind == b.hidden {
		return nil, false
	}
	return b.Backend.Kernel(kind)
}

func TestCompile_UnsupportedPrimitive(t *testing.T) {
	_, err := Compile(reshapeAndTile(), quietOptions(), limitedBackend{Backend: cpu.New(), hidden: primitive.KindTile})
	require.Error(t, err)
	assert.True(t, errors.Is(err, topology.ErrUnsupportedPrimitive))

	var graphErr *topology.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, "tile", graphErr.Primitive)
}

func TestCompile_GraphErrors(t *testing.T) {
	top := topology.New()
	require.NoError(t, top.Declare(primitive.NewActivation("a", "b", primitive.ActivationReLU)))
	require.NoError(t, top.Declare(primitive.NewActivation("b", "a", primitive.ActivationReLU)))

	_, err := Compile(top, quietOptions(), cpu.New())
	assert.True(t, errors.Is(err, topology.ErrCycle))
}

func TestExecute_BackendError(t *testing.T) {
	boom := errors.New("boom")
	backend := cpu.New()
	backend.Register(primitive.KindTile, func(context.Context, *primitive.Primitive, []*memory.Buffer, *memory.Buffer) error {
		return boom
	})

	net, err := Compile(reshapeAndTile(), quietOptions(), backend)
	require.NoError(t, err)
	require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 0, 5, 1.5)))

	_, err = net.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendExecution))
	assert.True(t, errors.Is(err, boom))

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "tile", execErr.Primitive)
	assert.Equal(t, StateFailed, net.State())
}

func TestExecute_Cancelled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		net := compile(t, reshapeAndTile(), compiler.Workers(workers))
		require.NoError(t, net.SetInputData("input", buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 0, 5, 1.5)))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := net.Execute(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, StateFailed, net.State())
	}
}

func TestExecute_RebindWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := cpu.New()
	backend.Register(primitive.KindTile, func(context.Context, *primitive.Primitive, []*memory.Buffer, *memory.Buffer) error {
		close(started)
		<-release
		return nil
	})

	net, err := Compile(reshapeAndTile(), quietOptions(), backend)
	require.NoError(t, err)
	input := buffer(t, f32(layout.BYXF, 1, 2, 2, 1), 1, 0, 5, 1.5)
	require.NoError(t, net.SetInputData("input", input))

	done := make(chan error, 1)
	go func() {
		_, err := net.Execute(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("tile kernel never started")
	}
	assert.Equal(t, StateRunning, net.State())
	assert.True(t, errors.Is(net.SetInputData("input", input), ErrInvalidState))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCompleted, net.State())
}

func TestNetwork_TopologyRecompiles(t *testing.T) {
	net := compile(t, reshapeAndTile())

	again := compile(t, net.Topology())
	assert.Equal(t, net.PrimitiveIDs(), again.PrimitiveIDs())
	assert.Equal(t, net.SynthesizedIDs(), again.SynthesizedIDs())
}
