// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layout provides the public data layout types: element types,
// physical formats, logical shapes and the Layout triple combining them.
//
// Example:
//
//	l := layout.New(layout.F32, layout.YXFB, layout.NewShape(1, 1, 2, 2))
//	fmt.Println(l) // f32:yxfb[b:1 f:1 x:2 y:2 z:1]
package layout

import (
	"github.com/born-ml/layoutnet/internal/layout"
)

// Layout is {DataType, Format, Shape}. Two layouts are compatible when all
// three are equal.
type Layout = layout.Layout

// DataType is the element type of a buffer.
type DataType = layout.DataType

// Element types.
const (
	F32 DataType = layout.F32
	F16 DataType = layout.F16
	I32 DataType = layout.I32
	I8  DataType = layout.I8
	U8  DataType = layout.U8
)

// Format is the physical dimension order of a buffer.
type Format = layout.Format

// Data formats, named outermost to innermost.
const (
	BFYX  Format = layout.BFYX
	YXFB  Format = layout.YXFB
	BYXF  Format = layout.BYXF
	FYXB  Format = layout.FYXB
	BFZYX Format = layout.BFZYX
)

// Weights formats: o is stored on the batch axis and i on the feature axis.
const (
	OIYX Format = layout.OIYX
	YXIO Format = layout.YXIO
	OYXI Format = layout.OYXI
	IOYX Format = layout.IOYX
)

// Axis names a logical dimension.
type Axis = layout.Axis

// Logical axes.
const (
	AxisBatch   Axis = layout.AxisBatch
	AxisFeature Axis = layout.AxisFeature
	AxisX       Axis = layout.AxisX
	AxisY       Axis = layout.AxisY
	AxisZ       Axis = layout.AxisZ
)

// Shape holds the logical extent of every axis.
type Shape = layout.Shape

// Coord addresses one element by logical position.
type Coord = layout.Coord

// New creates a layout. A zero Z extent is treated as 1.
func New(dt DataType, f Format, s Shape) Layout {
	return layout.New(dt, f, s)
}

// NewShape creates a rank-4 shape.
func NewShape(b, f, x, y int) Shape {
	return layout.NewShape(b, f, x, y)
}

// Formats returns every supported format.
func Formats() []Format {
	return layout.Formats()
}

// ParseFormat parses a format name such as "bfyx".
func ParseFormat(s string) (Format, error) {
	return layout.ParseFormat(s)
}

// ParseDataType parses an element type name such as "f32".
func ParseDataType(s string) (DataType, error) {
	return layout.ParseDataType(s)
}
