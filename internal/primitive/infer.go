package primitive

import (
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
)

var (
	convInputFormats   = []layout.Format{layout.BFYX, layout.YXFB, layout.BYXF}
	convWeightsFormats = []layout.Format{layout.OIYX, layout.YXIO, layout.OYXI, layout.IOYX}
)

// Validate checks the descriptor and the number of inputs.
func (p *Primitive) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("primitive has empty id")
	}
	if p.Desc == nil {
		return fmt.Errorf("primitive %q has no descriptor", p.ID)
	}

	n := len(p.Inputs)
	switch d := p.Desc.(type) {
	case InputLayout:
		if err := d.Layout.Validate(); err != nil {
			return err
		}
		return arity(p, n, 0, 0)
	case Data:
		if d.Mem == nil {
			return fmt.Errorf("data %q has no buffer", p.ID)
		}
		return arity(p, n, 0, 0)
	case Convolution:
		if d.StrideX < 0 || d.StrideY < 0 || d.PadX < 0 || d.PadY < 0 {
			return fmt.Errorf("convolution %q: negative stride or padding", p.ID)
		}
		return arity(p, n, 2, 3)
	case Concatenation:
		if !d.Axis.Valid() {
			return fmt.Errorf("concatenation %q: invalid axis %d", p.ID, int(d.Axis))
		}
		return arity(p, n, 1, -1)
	case Tile:
		if !d.Axis.Valid() {
			return fmt.Errorf("tile %q: invalid axis %d", p.ID, int(d.Axis))
		}
		if d.Tiles < 1 {
			return fmt.Errorf("tile %q: tiles must be >= 1, got %d", p.ID, d.Tiles)
		}
		return arity(p, n, 1, 1)
	case Reshape:
		if err := d.Shape.Validate(); err != nil {
			return fmt.Errorf("reshape %q: %w", p.ID, err)
		}
		return arity(p, n, 1, 1)
	case Reorder:
		if !d.Format.Valid() {
			return fmt.Errorf("reorder %q: invalid format %d", p.ID, int(d.Format))
		}
		if !d.DataType.Valid() {
			return fmt.Errorf("reorder %q: invalid data type %d", p.ID, int(d.DataType))
		}
		return arity(p, n, 1, 1)
	case Activation:
		return arity(p, n, 1, 1)
	default:
		return fmt.Errorf("primitive %q: unknown descriptor %T", p.ID, d)
	}
}

func arity(p *Primitive, n, lo, hi int) error {
	if n < lo || (hi >= 0 && n > hi) {
		return fmt.Errorf("%s: got %d inputs", p, n)
	}
	return nil
}

// SlotPolicy returns the format policy of input slot i.
func (p *Primitive) SlotPolicy(i int) Policy {
	switch p.Desc.(type) {
	case Convolution:
		switch i {
		case 0:
			return OneOf(convInputFormats...)
		case 1:
			return OneOf(convWeightsFormats...)
		default:
			return Any()
		}
	case Tile:
		return Fixed(layout.BFYX)
	default:
		// Reorder, Concatenation, Reshape and Activation read any format.
		return Any()
	}
}

// OutputLayout computes the layout p produces from the resolved layouts of
// its inputs. Every input must already satisfy its slot policy.
func (p *Primitive) OutputLayout(in []layout.Layout) (layout.Layout, error) {
	if len(in) != len(p.Inputs) {
		return layout.Layout{}, fmt.Errorf("%s: got %d input layouts for %d inputs", p, len(in), len(p.Inputs))
	}
	for i, l := range in {
		if pol := p.SlotPolicy(i); !pol.Accepts(l.Format) {
			return layout.Layout{}, fmt.Errorf("%s: input %d format %s not accepted (want %s)", p, i, l.Format, pol)
		}
	}

	switch d := p.Desc.(type) {
	case InputLayout:
		return d.Layout, nil
	case Data:
		return d.Mem.Layout(), nil
	case Convolution:
		return convolutionLayout(p, d, in)
	case Reorder:
		out := layout.New(d.DataType, d.Format, in[0].Shape)
		if err := layout.CanReorder(in[0], out); err != nil {
			return layout.Layout{}, fmt.Errorf("%s: %w", p, err)
		}
		return out, nil
	case Concatenation:
		return concatenationLayout(p, d, in)
	case Tile:
		out := in[0]
		out.Shape = out.Shape.WithDim(d.Axis, out.Shape.Dim(d.Axis)*d.Tiles)
		return out, out.Validate()
	case Reshape:
		out := in[0]
		out.Shape = d.Shape
		if out.Count() != in[0].Count() {
			return layout.Layout{}, fmt.Errorf("%s: cannot reshape %s into %s", p, in[0].Shape, d.Shape)
		}
		if err := out.Validate(); err != nil {
			return layout.Layout{}, fmt.Errorf("%s: %w", p, err)
		}
		return out, nil
	case Activation:
		return in[0], nil
	default:
		return layout.Layout{}, fmt.Errorf("primitive %q: unknown descriptor %T", p.ID, d)
	}
}

// Stride returns the effective strides.
func (c Convolution) Stride() (x, y int) {
	return max(c.StrideX, 1), max(c.StrideY, 1)
}

func convolutionLayout(p *Primitive, d Convolution, in []layout.Layout) (layout.Layout, error) {
	input, weights := in[0], in[1]
	if input.DataType != weights.DataType {
		return layout.Layout{}, fmt.Errorf("%s: input type %s differs from weights type %s", p, input.DataType, weights.DataType)
	}
	if input.Shape.Feature != weights.Shape.Feature {
		return layout.Layout{}, fmt.Errorf("%s: input has %d features, weights expect %d", p, input.Shape.Feature, weights.Shape.Feature)
	}

	if input.Shape.X+2*d.PadX < weights.Shape.X || input.Shape.Y+2*d.PadY < weights.Shape.Y {
		return layout.Layout{}, fmt.Errorf("%s: kernel %dx%d larger than padded input %dx%d", p,
			weights.Shape.X, weights.Shape.Y, input.Shape.X+2*d.PadX, input.Shape.Y+2*d.PadY)
	}

	sx, sy := d.Stride()
	outX := (input.Shape.X+2*d.PadX-weights.Shape.X)/sx + 1
	outY := (input.Shape.Y+2*d.PadY-weights.Shape.Y)/sy + 1
	if outX <= 0 || outY <= 0 {
		return layout.Layout{}, fmt.Errorf("%s: invalid output dimensions x=%d y=%d", p, outX, outY)
	}

	out := layout.New(input.DataType, input.Format, layout.NewShape(input.Shape.Batch, weights.Shape.Batch, outX, outY))
	if len(in) == 3 && in[2].Count() != weights.Shape.Batch {
		return layout.Layout{}, fmt.Errorf("%s: bias has %d elements, want %d", p, in[2].Count(), weights.Shape.Batch)
	}
	return out, nil
}

func concatenationLayout(p *Primitive, d Concatenation, in []layout.Layout) (layout.Layout, error) {
	out := in[0]
	total := 0
	for i, l := range in {
		if l.DataType != out.DataType {
			return layout.Layout{}, fmt.Errorf("%s: input %d type %s differs from %s", p, i, l.DataType, out.DataType)
		}
		if l.Shape.WithDim(d.Axis, 1) != out.Shape.WithDim(d.Axis, 1) {
			return layout.Layout{}, fmt.Errorf("%s: input %d shape %s does not match %s outside axis %s", p, i, l.Shape, out.Shape, d.Axis)
		}
		total += l.Shape.Dim(d.Axis)
	}
	out.Shape = out.Shape.WithDim(d.Axis, total)
	if err := out.Validate(); err != nil {
		return layout.Layout{}, fmt.Errorf("%s: %w", p, err)
	}
	return out, nil
}
