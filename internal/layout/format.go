package layout

import "fmt"

// Axis identifies one logical dimension of a Shape.
type Axis int

// Logical axes. Weights formats map output channels onto AxisBatch and
// input channels onto AxisFeature.
const (
	AxisBatch Axis = iota
	AxisFeature
	AxisX
	AxisY
	AxisZ
)

// String returns the single-letter axis name.
func (a Axis) String() string {
	switch a {
	case AxisBatch:
		return "b"
	case AxisFeature:
		return "f"
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

// Valid reports whether a is a known axis.
func (a Axis) Valid() bool {
	return a >= AxisBatch && a <= AxisZ
}

// ParseAxis parses a single-letter axis name.
func ParseAxis(s string) (Axis, error) {
	for a := AxisBatch; a <= AxisZ; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Format is an axis-ordering scheme for buffer memory.
type Format int

// Supported formats.
const (
	BFYX Format = iota
	YXFB
	BYXF
	FYXB
	BFZYX

	OIYX
	YXIO
	OYXI
	IOYX
)

type formatInfo struct {
	name    string
	order   []Axis // outermost first
	weights bool
}

var formats = [...]formatInfo{
	BFYX:  {"bfyx", []Axis{AxisBatch, AxisFeature, AxisY, AxisX}, false},
	YXFB:  {"yxfb", []Axis{AxisY, AxisX, AxisFeature, AxisBatch}, false},
	BYXF:  {"byxf", []Axis{AxisBatch, AxisY, AxisX, AxisFeature}, false},
	FYXB:  {"fyxb", []Axis{AxisFeature, AxisY, AxisX, AxisBatch}, false},
	BFZYX: {"bfzyx", []Axis{AxisBatch, AxisFeature, AxisZ, AxisY, AxisX}, false},
	OIYX:  {"oiyx", []Axis{AxisBatch, AxisFeature, AxisY, AxisX}, true},
	YXIO:  {"yxio", []Axis{AxisY, AxisX, AxisFeature, AxisBatch}, true},
	OYXI:  {"oyxi", []Axis{AxisBatch, AxisY, AxisX, AxisFeature}, true},
	IOYX:  {"ioyx", []Axis{AxisFeature, AxisBatch, AxisY, AxisX}, true},
}

// Formats returns every supported format.
func Formats() []Format {
	out := make([]Format, len(formats))
	for i := range formats {
		out[i] = Format(i)
	}
	return out
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f >= 0 && int(f) < len(formats)
}

// String returns the format name, e.g. "bfyx".
func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("format(%d)", int(f))
	}
	return formats[f].name
}

// Rank returns the number of dimensions the format addresses.
func (f Format) Rank() int {
	return len(formats[f].order)
}

// Order returns the axes from outermost to innermost.
func (f Format) Order() []Axis {
	return formats[f].order
}

// IsWeights reports whether the format is a weights (o/i) format.
func (f Format) IsWeights() bool {
	return formats[f].weights
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	for i := range formats {
		if formats[i].name == s {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
