// Package layout describes the physical arrangement of tensor data: element
// type, axis-ordering format and logical shape.
package layout

import (
	"fmt"
	"strings"
)

// DataType represents the element type of a buffer.
type DataType int

// Supported element types.
const (
	F32 DataType = iota
	F16
	I32
	I8
	U8
)

// Valid reports whether dt is a known data type.
func (dt DataType) Valid() bool {
	return dt >= F32 && dt <= U8
}

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case F32, I32:
		return 4
	case F16:
		return 2
	case I8, U8:
		return 1
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the type is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == F32 || dt == F16
}

// ConvertibleTo reports whether a reorder can convert elements of dt into target.
// Identity, float to float and integer to float conversions are supported.
func (dt DataType) ConvertibleTo(target DataType) bool {
	switch {
	case dt == target:
		return true
	case target.IsFloat():
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case I32:
		return "i32"
	case I8:
		return "i8"
	case U8:
		return "u8"
	default:
		return "unknown"
	}
}

// ParseDataType parses names produced by DataType.String.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "f32", "float32":
		return F32, nil
	case "f16", "float16":
		return F16, nil
	case "i32", "int32":
		return I32, nil
	case "i8", "int8":
		return I8, nil
	case "u8", "uint8":
		return U8, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}
