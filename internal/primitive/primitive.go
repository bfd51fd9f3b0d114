// Package primitive defines graph nodes: a closed set of primitive kinds, the
// input formats each kind accepts and the output layout it produces.
package primitive

import (
	"fmt"
	"slices"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
)

// Kind enumerates primitive kinds.
type Kind int

// Primitive kinds.
const (
	KindInputLayout Kind = iota
	KindData
	KindConvolution
	KindReorder
	KindConcatenation
	KindTile
	KindReshape
	KindActivation
)

// Kinds returns every primitive kind.
func Kinds() []Kind {
	return []Kind{
		KindInputLayout, KindData, KindConvolution, KindReorder,
		KindConcatenation, KindTile, KindReshape, KindActivation,
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInputLayout:
		return "input_layout"
	case KindData:
		return "data"
	case KindConvolution:
		return "convolution"
	case KindReorder:
		return "reorder"
	case KindConcatenation:
		return "concatenation"
	case KindTile:
		return "tile"
	case KindReshape:
		return "reshape"
	case KindActivation:
		return "activation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown primitive kind %q", s)
}

// Desc is the kind-specific part of a primitive. The set of implementations
// is closed: InputLayout, Data, Convolution, Reorder, Concatenation, Tile,
// Reshape and Activation.
type Desc interface {
	Kind() Kind
	desc()
}

// InputLayout is a graph input whose data is bound before execution.
type InputLayout struct {
	Layout layout.Layout
}

// Data is a constant buffer, e.g. convolution weights.
type Data struct {
	Mem *memory.Buffer
}

// Convolution is a 2D convolution over input, weights and an optional bias.
type Convolution struct {
	StrideX, StrideY int // zero means 1
	PadX, PadY       int
}

// Reorder converts its input into another format and element type.
type Reorder struct {
	Format   layout.Format
	DataType layout.DataType
}

// Concatenation joins its inputs along Axis.
type Concatenation struct {
	Axis layout.Axis
}

// Tile repeats its input Tiles times along Axis.
type Tile struct {
	Axis  layout.Axis
	Tiles int
}

// Reshape reinterprets its input buffer with a new shape in the same format.
type Reshape struct {
	Shape layout.Shape
}

// ActivationFunc selects an element-wise function.
type ActivationFunc int

// Activation functions.
const (
	ActivationReLU ActivationFunc = iota
	ActivationSigmoid
	ActivationTanh
	ActivationAbs
	ActivationLinear // A*x + B
)

var activationNames = [...]string{
	ActivationReLU:    "relu",
	ActivationSigmoid: "sigmoid",
	ActivationTanh:    "tanh",
	ActivationAbs:     "abs",
	ActivationLinear:  "linear",
}

// String returns the function name.
func (fn ActivationFunc) String() string {
	if fn < 0 || int(fn) >= len(activationNames) {
		return fmt.Sprintf("activation(%d)", int(fn))
	}
	return activationNames[fn]
}

// ParseActivationFunc parses names produced by ActivationFunc.String.
func ParseActivationFunc(s string) (ActivationFunc, error) {
	for i, name := range activationNames {
		if name == s {
			return ActivationFunc(i), nil
		}
	}
	return 0, fmt.Errorf("unknown activation function %q", s)
}

// Activation applies Func element-wise.
type Activation struct {
	Func ActivationFunc
	A, B float32
}

func (InputLayout) Kind() Kind   { return KindInputLayout }
func (Data) Kind() Kind          { return KindData }
func (Convolution) Kind() Kind   { return KindConvolution }
func (Reorder) Kind() Kind       { return KindReorder }
func (Concatenation) Kind() Kind { return KindConcatenation }
func (Tile) Kind() Kind          { return KindTile }
func (Reshape) Kind() Kind       { return KindReshape }
func (Activation) Kind() Kind    { return KindActivation }

func (InputLayout) desc()   {}
func (Data) desc()          {}
func (Convolution) desc()   {}
func (Reorder) desc()       {}
func (Concatenation) desc() {}
func (Tile) desc()          {}
func (Reshape) desc()       {}
func (Activation) desc()    {}

// Primitive is a named graph node.
type Primitive struct {
	ID     string
	Inputs []string
	Desc   Desc

	// Synthesized marks reorders inserted by the compiler.
	Synthesized bool
}

// Kind returns the primitive kind.
func (p *Primitive) Kind() Kind {
	return p.Desc.Kind()
}

// Clone returns a deep copy of the primitive's own fields.
// Constant buffers are shared.
func (p *Primitive) Clone() *Primitive {
	c := *p
	c.Inputs = slices.Clone(p.Inputs)
	return &c
}

// SameDefinition reports whether two primitives describe the same node.
func (p *Primitive) SameDefinition(o *Primitive) bool {
	return p.ID == o.ID && slices.Equal(p.Inputs, o.Inputs) && p.Desc == o.Desc
}

// String returns "id(kind)".
func (p *Primitive) String() string {
	return fmt.Sprintf("%s(%s)", p.ID, p.Kind())
}

// NewInputLayout declares a graph input.
func NewInputLayout(id string, l layout.Layout) *Primitive {
	return &Primitive{ID: id, Desc: InputLayout{Layout: l}}
}

// NewData declares a constant buffer.
func NewData(id string, mem *memory.Buffer) *Primitive {
	return &Primitive{ID: id, Desc: Data{Mem: mem}}
}

// NewConvolution declares a stride-1 unpadded convolution. bias may be empty.
func NewConvolution(id, input, weights, bias string) *Primitive {
	inputs := []string{input, weights}
	if bias != "" {
		inputs = append(inputs, bias)
	}
	return &Primitive{ID: id, Inputs: inputs, Desc: Convolution{}}
}

// NewReorder declares an explicit conversion of input into format f and type dt.
func NewReorder(id, input string, f layout.Format, dt layout.DataType) *Primitive {
	return &Primitive{ID: id, Inputs: []string{input}, Desc: Reorder{Format: f, DataType: dt}}
}

// NewConcatenation joins inputs along axis.
func NewConcatenation(id string, inputs []string, axis layout.Axis) *Primitive {
	return &Primitive{ID: id, Inputs: slices.Clone(inputs), Desc: Concatenation{Axis: axis}}
}

// NewTile repeats input tiles times along axis.
func NewTile(id, input string, axis layout.Axis, tiles int) *Primitive {
	return &Primitive{ID: id, Inputs: []string{input}, Desc: Tile{Axis: axis, Tiles: tiles}}
}

// NewReshape reinterprets input with shape s.
func NewReshape(id, input string, s layout.Shape) *Primitive {
	if s.Z == 0 {
		s.Z = 1
	}
	return &Primitive{ID: id, Inputs: []string{input}, Desc: Reshape{Shape: s}}
}

// NewActivation applies fn to input.
func NewActivation(id, input string, fn ActivationFunc) *Primitive {
	return &Primitive{ID: id, Inputs: []string{input}, Desc: Activation{Func: fn}}
}
