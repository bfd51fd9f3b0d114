// Package memory provides layout-described device buffers.
package memory

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/x448/float16"
)

// Buffer is raw storage plus the Layout describing it.
// A buffer has a single writer (its producing primitive) and any number of
// readers once the writer completed.
type Buffer struct {
	layout layout.Layout
	data   []byte
}

// Allocate creates a zeroed buffer for l.
func Allocate(l layout.Layout) (*Buffer, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return &Buffer{
		layout: l,
		data:   make([]byte, l.ByteSize()),
	}, nil
}

// FromFloat32 allocates an f32 buffer and copies values into it in memory order.
func FromFloat32(l layout.Layout, values []float32) (*Buffer, error) {
	if l.DataType != layout.F32 {
		return nil, fmt.Errorf("layout %s is not f32", l)
	}
	b, err := Allocate(l)
	if err != nil {
		return nil, err
	}
	if len(values) != l.Count() {
		return nil, fmt.Errorf("got %d values for layout %s with %d elements", len(values), l, l.Count())
	}
	copy(b.AsFloat32(), values)
	return b, nil
}

// Layout returns the buffer's layout.
func (b *Buffer) Layout() layout.Layout {
	return b.layout
}

// Count returns the number of elements.
func (b *Buffer) Count() int {
	return b.layout.Count()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (b *Buffer) Data() []byte {
	return b.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the buffer's type is not F32.
func (b *Buffer) AsFloat32() []float32 {
	if b.layout.DataType != layout.F32 {
		panic(fmt.Sprintf("buffer type is %s, not f32", b.layout.DataType))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by Count()
	return unsafe.Slice((*float32)(unsafe.Pointer(&b.data[0])), b.Count())
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the buffer's type is not F16.
func (b *Buffer) AsFloat16() []float16.Float16 {
	if b.layout.DataType != layout.F16 {
		panic(fmt.Sprintf("buffer type is %s, not f16", b.layout.DataType))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by Count()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&b.data[0])), b.Count())
}

// AsInt32 interprets the data as []int32.
// Panics if the buffer's type is not I32.
func (b *Buffer) AsInt32() []int32 {
	if b.layout.DataType != layout.I32 {
		panic(fmt.Sprintf("buffer type is %s, not i32", b.layout.DataType))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by Count()
	return unsafe.Slice((*int32)(unsafe.Pointer(&b.data[0])), b.Count())
}

// AsInt8 interprets the data as []int8.
// Panics if the buffer's type is not I8.
func (b *Buffer) AsInt8() []int8 {
	if b.layout.DataType != layout.I8 {
		panic(fmt.Sprintf("buffer type is %s, not i8", b.layout.DataType))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by Count()
	return unsafe.Slice((*int8)(unsafe.Pointer(&b.data[0])), b.Count())
}

// AsUint8 interprets the data as []uint8.
// Panics if the buffer's type is not U8.
func (b *Buffer) AsUint8() []uint8 {
	if b.layout.DataType != layout.U8 {
		panic(fmt.Sprintf("buffer type is %s, not u8", b.layout.DataType))
	}
	return b.data
}

// Load reads the element at memory offset i as float64.
func (b *Buffer) Load(i int) float64 {
	switch b.layout.DataType {
	case layout.F32:
		return float64(b.AsFloat32()[i])
	case layout.F16:
		return float64(b.AsFloat16()[i].Float32())
	case layout.I32:
		return float64(b.AsInt32()[i])
	case layout.I8:
		return float64(b.AsInt8()[i])
	case layout.U8:
		return float64(b.data[i])
	default:
		panic("unknown data type")
	}
}

// Store writes v at memory offset i, converting to the buffer's type.
func (b *Buffer) Store(i int, v float64) {
	switch b.layout.DataType {
	case layout.F32:
		b.AsFloat32()[i] = float32(v)
	case layout.F16:
		b.AsFloat16()[i] = float16.Fromfloat32(float32(v))
	case layout.I32:
		b.AsInt32()[i] = int32(v)
	case layout.I8:
		b.AsInt8()[i] = int8(v)
	case layout.U8:
		b.data[i] = uint8(v)
	default:
		panic("unknown data type")
	}
}

// At reads the element at a logical coordinate.
func (b *Buffer) At(c layout.Coord) float64 {
	return b.Load(b.layout.Offset(c))
}

// Set writes the element at a logical coordinate.
func (b *Buffer) Set(c layout.Coord, v float64) {
	b.Store(b.layout.Offset(c), v)
}

// CopyFrom copies raw bytes from src. Both buffers must have the same byte size.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if len(src.data) != len(b.data) {
		return fmt.Errorf("copy: byte size %d differs from %d", len(src.data), len(b.data))
	}
	copy(b.data, src.data)
	return nil
}
