package layout

import "fmt"

// Layout describes a tensor's physical arrangement in memory.
type Layout struct {
	DataType DataType
	Format   Format
	Shape    Shape
}

// New creates a layout. Z defaults to 1 when left zero.
func New(dt DataType, f Format, s Shape) Layout {
	if s.Z == 0 {
		s.Z = 1
	}
	return Layout{DataType: dt, Format: f, Shape: s}
}

// Validate checks the data type, the shape and that the shape fits the
// format rank.
func (l Layout) Validate() error {
	if !l.DataType.Valid() {
		return fmt.Errorf("invalid data type %d", int(l.DataType))
	}
	if !l.Format.Valid() {
		return fmt.Errorf("invalid format %d", int(l.Format))
	}
	if err := l.Shape.Validate(); err != nil {
		return fmt.Errorf("layout %s: %w", l, err)
	}
	if l.Format.Rank() == 4 && l.Shape.Z != 1 {
		return fmt.Errorf("layout %s: rank-4 format requires z == 1", l)
	}
	return nil
}

// Count returns the number of elements.
func (l Layout) Count() int {
	return l.Shape.Count()
}

// ByteSize returns the storage size in bytes.
func (l Layout) ByteSize() int {
	return l.Count() * l.DataType.Size()
}

// Pitches returns the element stride of every axis, indexed by Axis.
func (l Layout) Pitches() [5]int {
	var p [5]int
	order := l.Format.Order()
	stride := 1
	for i := len(order) - 1; i >= 0; i-- {
		p[order[i]] = stride
		stride *= l.Shape.Dim(order[i])
	}
	return p
}

// Offset returns the element offset of c within a buffer of this layout.
func (l Layout) Offset(c Coord) int {
	p := l.Pitches()
	off := 0
	for _, a := range l.Format.Order() {
		off += c.Get(a) * p[a]
	}
	return off
}

// Equal reports whether two layouts are identical.
func (l Layout) Equal(o Layout) bool {
	return l == o
}

// Compatible reports whether data produced in l can be read by a consumer
// expecting want without conversion.
func Compatible(l, want Layout) bool {
	return l.DataType == want.DataType && l.Format == want.Format && l.Shape == want.Shape
}

// CanReorder reports whether a reorder can turn data in from into to.
func CanReorder(from, to Layout) error {
	if from.Shape != to.Shape {
		return fmt.Errorf("shape %s differs from %s", from.Shape, to.Shape)
	}
	if to.Format.Rank() == 4 && from.Shape.Z != 1 {
		return fmt.Errorf("shape %s does not fit rank-4 format %s", from.Shape, to.Format)
	}
	if !from.DataType.ConvertibleTo(to.DataType) {
		return fmt.Errorf("unsupported element conversion %s -> %s", from.DataType, to.DataType)
	}
	return nil
}

// String formats the layout as "f32:bfyx[b:1 f:1 x:2 y:2 z:1]".
func (l Layout) String() string {
	return fmt.Sprintf("%s:%s%s", l.DataType, l.Format, l.Shape)
}
