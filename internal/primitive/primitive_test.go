package primitive

import (
	"testing"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(format layout.Format, b, f, x, y int) layout.Layout {
	return layout.New(layout.F32, format, layout.NewShape(b, f, x, y))
}

func TestPolicy(t *testing.T) {
	anyPol := Any()
	assert.True(t, anyPol.IsAgnostic())
	assert.True(t, anyPol.Accepts(layout.FYXB))
	assert.Equal(t, layout.FYXB, anyPol.Target(layout.FYXB))

	fixed := Fixed(layout.BFYX)
	assert.False(t, fixed.Accepts(layout.BYXF))
	assert.Equal(t, layout.BFYX, fixed.Target(layout.BYXF))
	assert.Equal(t, "bfyx", fixed.String())

	oneOf := OneOf(layout.BFYX, layout.YXFB)
	assert.True(t, oneOf.Accepts(layout.YXFB))
	assert.Equal(t, layout.YXFB, oneOf.Target(layout.YXFB))
	assert.Equal(t, layout.BFYX, oneOf.Target(layout.FYXB))
	assert.Equal(t, "{bfyx|yxfb}", oneOf.String())
}

func TestSlotPolicy(t *testing.T) {
	conv := NewConvolution("conv", "in", "w", "")
	assert.True(t, conv.SlotPolicy(0).Accepts(layout.YXFB))
	assert.False(t, conv.SlotPolicy(0).Accepts(layout.FYXB))
	assert.True(t, conv.SlotPolicy(1).Accepts(layout.YXIO))

	concat := NewConcatenation("concat", []string{"a", "b"}, layout.AxisFeature)
	assert.True(t, concat.SlotPolicy(0).IsAgnostic())
	assert.True(t, concat.SlotPolicy(1).IsAgnostic())

	tile := NewTile("tile", "in", layout.AxisY, 4)
	assert.False(t, tile.SlotPolicy(0).IsAgnostic())
	assert.True(t, tile.SlotPolicy(0).Accepts(layout.BFYX))
	assert.False(t, tile.SlotPolicy(0).Accepts(layout.BYXF))
}

func TestValidate(t *testing.T) {
	w, err := memory.Allocate(f32(layout.OIYX, 1, 1, 1, 2))
	require.NoError(t, err)

	valid := []*Primitive{
		NewInputLayout("in", f32(layout.BFYX, 1, 1, 2, 2)),
		NewData("w", w),
		NewConvolution("conv", "in", "w", ""),
		NewConvolution("conv_b", "in", "w", "bias"),
		NewConcatenation("concat", []string{"a"}, layout.AxisFeature),
		NewTile("tile", "in", layout.AxisX, 2),
		NewReshape("reshape", "in", layout.NewShape(1, 4, 1, 1)),
		NewReorder("reorder", "in", layout.BYXF, layout.F16),
		NewActivation("relu", "in", ActivationReLU),
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), p.ID)
	}

	invalid := []*Primitive{
		{ID: "", Desc: Activation{}},
		{ID: "nodesc"},
		NewData("nil", nil),
		{ID: "conv", Inputs: []string{"in"}, Desc: Convolution{}},
		NewConcatenation("concat", nil, layout.AxisFeature),
		NewTile("tile", "in", layout.AxisX, 0),
		{ID: "relu", Inputs: []string{"a", "b"}, Desc: Activation{}},
		NewInputLayout("in", f32(layout.BFYX, 0, 1, 1, 1)),
		NewInputLayout("in", layout.New(layout.DataType(9), layout.BFYX, layout.NewShape(1, 1, 1, 1))),
		NewTile("tile", "in", layout.Axis(9), 2),
		NewConcatenation("concat", []string{"a"}, layout.Axis(-1)),
		NewReorder("reorder", "in", layout.Format(42), layout.F32),
		NewReorder("reorder", "in", layout.BFYX, layout.DataType(-1)),
	}
	for _, p := range invalid {
		assert.Error(t, p.Validate(), p.ID)
	}
}

func TestSameDefinition(t *testing.T) {
	a := NewTile("tile", "in", layout.AxisY, 4)
	assert.True(t, a.SameDefinition(NewTile("tile", "in", layout.AxisY, 4)))
	assert.False(t, a.SameDefinition(NewTile("tile", "in", layout.AxisY, 2)))
	assert.False(t, a.SameDefinition(NewTile("tile", "other", layout.AxisY, 4)))
	assert.False(t, a.SameDefinition(NewReshape("tile", "in", layout.NewShape(1, 1, 1, 1))))
}

func TestOutputLayout_Convolution(t *testing.T) {
	conv := NewConvolution("conv", "in", "w", "")
	out, err := conv.OutputLayout([]layout.Layout{
		f32(layout.YXFB, 1, 1, 2, 2),
		f32(layout.YXIO, 1, 1, 1, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, f32(layout.YXFB, 1, 1, 2, 1), out)

	_, err = conv.OutputLayout([]layout.Layout{
		f32(layout.FYXB, 1, 1, 2, 2),
		f32(layout.YXIO, 1, 1, 1, 2),
	})
	assert.Error(t, err, "fyxb is not an accepted convolution input")

	_, err = conv.OutputLayout([]layout.Layout{
		f32(layout.BFYX, 1, 2, 2, 2),
		f32(layout.OIYX, 1, 1, 1, 2),
	})
	assert.Error(t, err, "feature mismatch")

	strided := NewConvolution("conv", "in", "w", "")
	strided.Desc = Convolution{StrideX: 2, StrideY: 2}
	_, err = strided.OutputLayout([]layout.Layout{
		f32(layout.BFYX, 1, 1, 1, 2),
		f32(layout.OIYX, 1, 1, 2, 2),
	})
	assert.Error(t, err, "kernel wider than the input")

	strided.Desc = Convolution{StrideX: 2, StrideY: 2, PadX: 1}
	out, err = strided.OutputLayout([]layout.Layout{
		f32(layout.BFYX, 1, 1, 1, 2),
		f32(layout.OIYX, 1, 1, 2, 2),
	})
	require.NoError(t, err, "padding covers the kernel")
	assert.Equal(t, f32(layout.BFYX, 1, 1, 1, 1), out)
}

func TestOutputLayout_Concatenation(t *testing.T) {
	concat := NewConcatenation("concat", []string{"a", "b"}, layout.AxisFeature)
	out, err := concat.OutputLayout([]layout.Layout{
		f32(layout.YXFB, 1, 1, 2, 1),
		f32(layout.BYXF, 1, 1, 2, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, f32(layout.YXFB, 1, 2, 2, 1), out)

	_, err = concat.OutputLayout([]layout.Layout{
		f32(layout.YXFB, 1, 1, 2, 1),
		f32(layout.BYXF, 1, 1, 3, 1),
	})
	assert.Error(t, err)
}

func TestOutputLayout_TileAndReshape(t *testing.T) {
	reshape := NewReshape("reshape", "in", layout.NewShape(2, 1, 2, 1))
	out, err := reshape.OutputLayout([]layout.Layout{f32(layout.BYXF, 1, 2, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, f32(layout.BYXF, 2, 1, 2, 1), out)

	_, err = reshape.OutputLayout([]layout.Layout{f32(layout.BYXF, 1, 3, 2, 1)})
	assert.Error(t, err)

	tile := NewTile("tile", "reshape", layout.AxisY, 4)
	out, err = tile.OutputLayout([]layout.Layout{f32(layout.BFYX, 2, 1, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, f32(layout.BFYX, 2, 1, 2, 4), out)

	_, err = tile.OutputLayout([]layout.Layout{f32(layout.BYXF, 2, 1, 2, 1)})
	assert.Error(t, err)
}

func TestOutputLayout_Reorder(t *testing.T) {
	reorder := NewReorder("r", "in", layout.BFYX, layout.F16)
	out, err := reorder.OutputLayout([]layout.Layout{f32(layout.BYXF, 1, 2, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, layout.New(layout.F16, layout.BFYX, layout.NewShape(1, 2, 2, 1)), out)

	toInt := NewReorder("r", "in", layout.BFYX, layout.I8)
	_, err = toInt.OutputLayout([]layout.Layout{f32(layout.BYXF, 1, 2, 2, 1)})
	assert.Error(t, err)
}
