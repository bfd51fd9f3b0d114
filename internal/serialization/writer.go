package serialization

import (
	"fmt"
	"io"
	"os"

	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Encode converts top into a graph file document, primitives in insertion
// order.
func Encode(top *topology.Topology) (*File, error) {
	f := &File{
		Version:    FormatVersion,
		Primitives: make([]PrimitiveSpec, 0, top.Len()),
	}
	for _, p := range top.Primitives() {
		spec, err := encodePrimitive(p)
		if err != nil {
			return nil, err
		}
		f.Primitives = append(f.Primitives, spec)
	}
	return f, nil
}

func encodePrimitive(p *primitive.Primitive) (PrimitiveSpec, error) {
	spec := PrimitiveSpec{
		ID:          p.ID,
		Kind:        p.Kind().String(),
		Inputs:      p.Inputs,
		Synthesized: p.Synthesized,
	}

	switch d := p.Desc.(type) {
	case primitive.InputLayout:
		spec.Layout = layoutToSpec(d.Layout)
	case primitive.Data:
		spec.Layout = layoutToSpec(d.Mem.Layout())
		spec.Values = make([]float64, d.Mem.Count())
		for i := range spec.Values {
			spec.Values[i] = d.Mem.Load(i)
		}
		spec.SHA256 = ComputeChecksum(d.Mem.Data())
	case primitive.Convolution:
		if d != (primitive.Convolution{}) {
			spec.Stride = []int{d.StrideX, d.StrideY}
			spec.Pad = []int{d.PadX, d.PadY}
		}
	case primitive.Reorder:
		spec.Format = d.Format.String()
		spec.Type = d.DataType.String()
	case primitive.Concatenation:
		spec.Axis = d.Axis.String()
	case primitive.Tile:
		spec.Axis = d.Axis.String()
		spec.Tiles = d.Tiles
	case primitive.Reshape:
		spec.Shape = shapeToSpec(d.Shape)
	case primitive.Activation:
		spec.Func = d.Func.String()
		spec.A, spec.B = d.A, d.B
	default:
		return PrimitiveSpec{}, fmt.Errorf("primitive %q: cannot encode %T", p.ID, d)
	}
	return spec, nil
}

// Write encodes top as YAML to w.
func Write(w io.Writer, top *topology.Topology) error {
	f, err := Encode(top)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "encode graph file")
	}
	return enc.Close()
}

// WriteFile writes top to a graph file at path.
func WriteFile(path string, top *topology.Topology) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for graph saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := Write(file, top); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}
