package layout

import "fmt"

// Shape holds logical dimension sizes. Z is 1 for rank-4 data.
type Shape struct {
	Batch   int
	Feature int
	X       int
	Y       int
	Z       int
}

// NewShape builds a rank-4 shape in (batch, feature, x, y) order.
func NewShape(b, f, x, y int) Shape {
	return Shape{Batch: b, Feature: f, X: x, Y: y, Z: 1}
}

// Dim returns the size along an axis.
func (s Shape) Dim(a Axis) int {
	switch a {
	case AxisBatch:
		return s.Batch
	case AxisFeature:
		return s.Feature
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	default:
		panic(fmt.Sprintf("unknown axis %d", int(a)))
	}
}

// WithDim returns a copy of s with the axis set to n.
func (s Shape) WithDim(a Axis, n int) Shape {
	switch a {
	case AxisBatch:
		s.Batch = n
	case AxisFeature:
		s.Feature = n
	case AxisX:
		s.X = n
	case AxisY:
		s.Y = n
	case AxisZ:
		s.Z = n
	default:
		panic(fmt.Sprintf("unknown axis %d", int(a)))
	}
	return s
}

// Count returns the total number of elements.
func (s Shape) Count() int {
	return s.Batch * s.Feature * s.X * s.Y * s.Z
}

// Validate checks that all dimensions are positive.
func (s Shape) Validate() error {
	for _, a := range []Axis{AxisBatch, AxisFeature, AxisX, AxisY, AxisZ} {
		if d := s.Dim(a); d <= 0 {
			return fmt.Errorf("invalid dimension %s: %d (must be > 0)", a, d)
		}
	}
	return nil
}

// String formats the shape as [b f x y z].
func (s Shape) String() string {
	return fmt.Sprintf("[b:%d f:%d x:%d y:%d z:%d]", s.Batch, s.Feature, s.X, s.Y, s.Z)
}

// Coord addresses one element by logical position.
type Coord struct {
	B, F, X, Y, Z int
}

// Get returns the position along a.
func (c Coord) Get(a Axis) int {
	switch a {
	case AxisBatch:
		return c.B
	case AxisFeature:
		return c.F
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	default:
		return c.Z
	}
}

// With returns c with the position along a set to v.
func (c Coord) With(a Axis, v int) Coord {
	switch a {
	case AxisBatch:
		c.B = v
	case AxisFeature:
		c.F = v
	case AxisX:
		c.X = v
	case AxisY:
		c.Y = v
	default:
		c.Z = v
	}
	return c
}

// Each calls fn for every coordinate of s in b, f, z, y, x order.
func (s Shape) Each(fn func(c Coord)) {
	var c Coord
	for c.B = 0; c.B < s.Batch; c.B++ {
		for c.F = 0; c.F < s.Feature; c.F++ {
			for c.Z = 0; c.Z < s.Z; c.Z++ {
				for c.Y = 0; c.Y < s.Y; c.Y++ {
					for c.X = 0; c.X < s.X; c.X++ {
						fn(c)
					}
				}
			}
		}
	}
}
