package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// concatenation places each input at its running offset along the axis.
func concatenation(_ context.Context, p *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	d, ok := p.Desc.(primitive.Concatenation)
	if !ok {
		return fmt.Errorf("concatenation kernel got %s", p)
	}

	offset := 0
	for _, src := range in {
		src.Layout().Shape.Each(func(c layout.Coord) {
			out.Set(c.With(d.Axis, c.Get(d.Axis)+offset), src.At(c))
		})
		offset += src.Layout().Shape.Dim(d.Axis)
	}
	if offset != out.Layout().Shape.Dim(d.Axis) {
		return fmt.Errorf("concatenation %q: inputs span %d along %s, output has %d",
			p.ID, offset, d.Axis, out.Layout().Shape.Dim(d.Axis))
	}
	return nil
}

// tile repeats the input along the axis; output position i reads input
// position i mod n.
func tile(_ context.Context, p *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	d, ok := p.Desc.(primitive.Tile)
	if !ok {
		return fmt.Errorf("tile kernel got %s", p)
	}

	src := in[0]
	n := src.Layout().Shape.Dim(d.Axis)
	out.Layout().Shape.Each(func(c layout.Coord) {
		out.Set(c, src.At(c.With(d.Axis, c.Get(d.Axis)%n)))
	})
	return nil
}
