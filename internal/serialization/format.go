package serialization

import (
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
)

// FormatVersion is the graph file version written by Write.
const FormatVersion = 1

// File is a graph file document.
type File struct {
	Version    int               `yaml:"version"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
	Primitives []PrimitiveSpec   `yaml:"primitives"`
}

// LayoutSpec describes a layout.
type LayoutSpec struct {
	Type   string `yaml:"type"`
	Format string `yaml:"format"`
	Shape  []int  `yaml:"shape,flow"`
}

// PrimitiveSpec describes one primitive. Which fields apply depends on Kind.
type PrimitiveSpec struct {
	ID          string   `yaml:"id"`
	Kind        string   `yaml:"kind"`
	Inputs      []string `yaml:"inputs,omitempty,flow"`
	Synthesized bool     `yaml:"synthesized,omitempty"`

	// input_layout, data
	Layout *LayoutSpec `yaml:"layout,omitempty"`
	Values []float64   `yaml:"values,omitempty,flow"`
	SHA256 string      `yaml:"sha256,omitempty"`

	// convolution: x, y
	Stride []int `yaml:"stride,omitempty,flow"`
	Pad    []int `yaml:"pad,omitempty,flow"`

	// reorder
	Format string `yaml:"format,omitempty"`
	Type   string `yaml:"type,omitempty"`

	// concatenation, tile
	Axis  string `yaml:"axis,omitempty"`
	Tiles int    `yaml:"tiles,omitempty"`

	// reshape
	Shape []int `yaml:"shape,omitempty,flow"`

	// activation
	Func string  `yaml:"func,omitempty"`
	A    float32 `yaml:"a,omitempty"`
	B    float32 `yaml:"b,omitempty"`
}

func shapeToSpec(s layout.Shape) []int {
	if s.Z > 1 {
		return []int{s.Batch, s.Feature, s.X, s.Y, s.Z}
	}
	return []int{s.Batch, s.Feature, s.X, s.Y}
}

func specToShape(v []int) (layout.Shape, error) {
	switch len(v) {
	case 4:
		return layout.NewShape(v[0], v[1], v[2], v[3]), nil
	case 5:
		return layout.Shape{Batch: v[0], Feature: v[1], X: v[2], Y: v[3], Z: v[4]}, nil
	default:
		return layout.Shape{}, fmt.Errorf("shape needs 4 or 5 dimensions, got %d", len(v))
	}
}

func layoutToSpec(l layout.Layout) *LayoutSpec {
	return &LayoutSpec{
		Type:   l.DataType.String(),
		Format: l.Format.String(),
		Shape:  shapeToSpec(l.Shape),
	}
}

func specToLayout(s *LayoutSpec) (layout.Layout, error) {
	dt, err := layout.ParseDataType(s.Type)
	if err != nil {
		return layout.Layout{}, err
	}
	f, err := layout.ParseFormat(s.Format)
	if err != nil {
		return layout.Layout{}, err
	}
	shape, err := specToShape(s.Shape)
	if err != nil {
		return layout.Layout{}, err
	}
	l := layout.New(dt, f, shape)
	return l, l.Validate()
}

// pair reads an optional [x, y] parameter.
func pair(v []int, name string) (x, y int, err error) {
	switch len(v) {
	case 0:
		return 0, 0, nil
	case 2:
		return v[0], v[1], nil
	default:
		return 0, 0, fmt.Errorf("%s needs 2 values, got %d", name, len(v))
	}
}
