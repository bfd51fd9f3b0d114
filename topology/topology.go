// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package topology provides the public API for describing networks of
// primitives connected by named dependencies.
//
// Example:
//
//	top := topology.New()
//	if err := top.Add(topology.InputLayout("input", l)); err != nil {
//	    return err
//	}
//	if err := top.Add(topology.Tile("tile", "input", layout.AxisY, 4)); err != nil {
//	    return err
//	}
package topology

import (
	"io"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/serialization"
	internaltopology "github.com/born-ml/layoutnet/internal/topology"
)

// Topology is a mutable graph of primitives keyed by unique id.
type Topology = internaltopology.Topology

// Primitive is a named graph node.
type Primitive = primitive.Primitive

// Kind identifies the operation of a primitive.
type Kind = primitive.Kind

// Primitive kinds.
const (
	KindInputLayout   Kind = primitive.KindInputLayout
	KindData          Kind = primitive.KindData
	KindConvolution   Kind = primitive.KindConvolution
	KindReorder       Kind = primitive.KindReorder
	KindConcatenation Kind = primitive.KindConcatenation
	KindTile          Kind = primitive.KindTile
	KindReshape       Kind = primitive.KindReshape
	KindActivation    Kind = primitive.KindActivation
)

// ActivationFunc selects an element-wise function.
type ActivationFunc = primitive.ActivationFunc

// Activation functions.
const (
	ActivationReLU    ActivationFunc = primitive.ActivationReLU
	ActivationSigmoid ActivationFunc = primitive.ActivationSigmoid
	ActivationTanh    ActivationFunc = primitive.ActivationTanh
	ActivationAbs     ActivationFunc = primitive.ActivationAbs
	ActivationLinear  ActivationFunc = primitive.ActivationLinear
)

// GraphError describes a construction or compilation failure.
type GraphError = internaltopology.GraphError

// Graph errors, matched with errors.Is.
var (
	ErrNameConflict         = internaltopology.ErrNameConflict
	ErrUnresolvedReference  = internaltopology.ErrUnresolvedReference
	ErrCycle                = internaltopology.ErrCycle
	ErrLayoutIncompatible   = internaltopology.ErrLayoutIncompatible
	ErrUnsupportedPrimitive = internaltopology.ErrUnsupportedPrimitive
	ErrInvalidPrimitive     = internaltopology.ErrInvalidPrimitive
)

// New creates an empty topology.
func New() *Topology {
	return internaltopology.New()
}

// InputLayout declares a graph input with a fixed layout.
func InputLayout(id string, l layout.Layout) *Primitive {
	return primitive.NewInputLayout(id, l)
}

// Data declares a constant buffer such as convolution weights.
func Data(id string, mem *memory.Buffer) *Primitive {
	return primitive.NewData(id, mem)
}

// Convolution declares a stride-1 unpadded 2D convolution. bias may be empty.
func Convolution(id, input, weights, bias string) *Primitive {
	return primitive.NewConvolution(id, input, weights, bias)
}

// ConvolutionWithParams declares a convolution with explicit stride and padding.
func ConvolutionWithParams(id, input, weights, bias string, strideX, strideY, padX, padY int) *Primitive {
	p := primitive.NewConvolution(id, input, weights, bias)
	p.Desc = primitive.Convolution{StrideX: strideX, StrideY: strideY, PadX: padX, PadY: padY}
	return p
}

// Reorder declares an explicit conversion into format f and element type dt.
func Reorder(id, input string, f layout.Format, dt layout.DataType) *Primitive {
	return primitive.NewReorder(id, input, f, dt)
}

// Concatenation joins inputs along axis. The output takes the format of the
// first input.
func Concatenation(id string, inputs []string, axis layout.Axis) *Primitive {
	return primitive.NewConcatenation(id, inputs, axis)
}

// Tile repeats input tiles times along axis. Its input is always bfyx.
func Tile(id, input string, axis layout.Axis, tiles int) *Primitive {
	return primitive.NewTile(id, input, axis, tiles)
}

// Reshape reinterprets input with shape s, keeping its format.
func Reshape(id, input string, s layout.Shape) *Primitive {
	return primitive.NewReshape(id, input, s)
}

// Activation applies fn element-wise.
func Activation(id, input string, fn ActivationFunc) *Primitive {
	return primitive.NewActivation(id, input, fn)
}

// LinearActivation applies a*x + b element-wise.
func LinearActivation(id, input string, a, b float32) *Primitive {
	p := primitive.NewActivation(id, input, primitive.ActivationLinear)
	p.Desc = primitive.Activation{Func: primitive.ActivationLinear, A: a, B: b}
	return p
}

// Read decodes a YAML graph file. Entries may appear in any order.
func Read(r io.Reader) (*Topology, error) {
	return serialization.Read(r)
}

// ReadFile decodes the YAML graph file at path.
func ReadFile(path string) (*Topology, error) {
	return serialization.ReadFile(path)
}

// Write encodes top as a YAML graph file.
func Write(w io.Writer, top *Topology) error {
	return serialization.Write(w, top)
}

// WriteFile writes top to a YAML graph file at path.
func WriteFile(path string, top *Topology) error {
	return serialization.WriteFile(path, top)
}
