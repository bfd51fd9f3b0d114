package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// reorder copies every element to its position in the output layout,
// converting the data type on store.
func reorder(_ context.Context, _ *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	src := in[0]
	out.Layout().Shape.Each(func(c layout.Coord) {
		out.Set(c, src.At(c))
	})
	return nil
}

// reshape reinterprets the input bytes under the output shape.
func reshape(_ context.Context, p *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	if err := out.CopyFrom(in[0]); err != nil {
		return fmt.Errorf("reshape %q: %w", p.ID, err)
	}
	return nil
}
