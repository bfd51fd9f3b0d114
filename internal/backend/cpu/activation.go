package cpu

import (
	"context"
	"fmt"
	"math"

	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// activation applies an element-wise function. Input and output share a
// layout, so elements map by memory offset.
func (cpu *CPUBackend) activation(_ context.Context, p *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	d, ok := p.Desc.(primitive.Activation)
	if !ok {
		return fmt.Errorf("activation kernel got %s", p)
	}
	fn, err := activationFunc(d)
	if err != nil {
		return fmt.Errorf("activation %q: %w", p.ID, err)
	}

	src := in[0]
	parallel.For(out.Count(), func(i int) {
		out.Store(i, fn(src.Load(i)))
	}, cpu.cfg)
	return nil
}

func activationFunc(d primitive.Activation) (func(float64) float64, error) {
	switch d.Func {
	case primitive.ActivationReLU:
		return func(x float64) float64 { return max(x, 0) }, nil
	case primitive.ActivationSigmoid:
		return func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }, nil
	case primitive.ActivationTanh:
		return math.Tanh, nil
	case primitive.ActivationAbs:
		return math.Abs, nil
	case primitive.ActivationLinear:
		a, b := float64(d.A), float64(d.B)
		return func(x float64) float64 { return a*x + b }, nil
	default:
		return nil, fmt.Errorf("unknown activation function %d", d.Func)
	}
}
