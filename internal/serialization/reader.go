package serialization

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/primitive"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Decode builds a topology from a graph file document. Primitives are
// declared without resolving references, so entries may appear in any order.
// Duplicate ids fail with topology.ErrNameConflict.
func Decode(f *File) (*topology.Topology, error) {
	if err := ValidateFile(f); err != nil {
		return nil, err
	}

	top := topology.New()
	for i := range f.Primitives {
		p, err := decodePrimitive(&f.Primitives[i])
		if err != nil {
			return nil, err
		}
		if err := top.Declare(p); err != nil {
			return nil, err
		}
	}
	return top, nil
}

func decodePrimitive(s *PrimitiveSpec) (*primitive.Primitive, error) {
	kind, err := primitive.ParseKind(s.Kind)
	if err != nil {
		return nil, invalid("unknown_kind", s.ID, err)
	}

	desc, err := decodeDesc(kind, s)
	if err != nil {
		return nil, err
	}
	p := &primitive.Primitive{
		ID:          s.ID,
		Inputs:      append([]string(nil), s.Inputs...),
		Desc:        desc,
		Synthesized: s.Synthesized,
	}
	if err := p.Validate(); err != nil {
		return nil, invalid("invalid_primitive", s.ID, err)
	}
	return p, nil
}

//nolint:gocyclo,cyclop // One case per primitive kind.
func decodeDesc(kind primitive.Kind, s *PrimitiveSpec) (primitive.Desc, error) {
	switch kind {
	case primitive.KindInputLayout:
		l, err := requireLayout(s)
		if err != nil {
			return nil, err
		}
		return primitive.InputLayout{Layout: l}, nil

	case primitive.KindData:
		l, err := requireLayout(s)
		if err != nil {
			return nil, err
		}
		mem, err := decodeData(s, l)
		if err != nil {
			return nil, err
		}
		return primitive.Data{Mem: mem}, nil

	case primitive.KindConvolution:
		sx, sy, err := pair(s.Stride, "stride")
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		px, py, err := pair(s.Pad, "pad")
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Convolution{StrideX: sx, StrideY: sy, PadX: px, PadY: py}, nil

	case primitive.KindReorder:
		f, err := layout.ParseFormat(s.Format)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		dt, err := layout.ParseDataType(s.Type)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Reorder{Format: f, DataType: dt}, nil

	case primitive.KindConcatenation:
		axis, err := layout.ParseAxis(s.Axis)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Concatenation{Axis: axis}, nil

	case primitive.KindTile:
		axis, err := layout.ParseAxis(s.Axis)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Tile{Axis: axis, Tiles: s.Tiles}, nil

	case primitive.KindReshape:
		shape, err := specToShape(s.Shape)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Reshape{Shape: shape}, nil

	case primitive.KindActivation:
		fn, err := primitive.ParseActivationFunc(s.Func)
		if err != nil {
			return nil, invalid("bad_parameter", s.ID, err)
		}
		return primitive.Activation{Func: fn, A: s.A, B: s.B}, nil

	default:
		return nil, invalid("unknown_kind", s.ID, fmt.Errorf("kind %s", kind))
	}
}

func requireLayout(s *PrimitiveSpec) (layout.Layout, error) {
	if s.Layout == nil {
		return layout.Layout{}, invalid("bad_layout", s.ID, fmt.Errorf("%s needs a layout", s.Kind))
	}
	l, err := specToLayout(s.Layout)
	if err != nil {
		return layout.Layout{}, invalid("bad_layout", s.ID, err)
	}
	return l, nil
}

func decodeData(s *PrimitiveSpec, l layout.Layout) (*memory.Buffer, error) {
	if len(s.Values) != l.Count() {
		return nil, invalid("bad_data", s.ID, fmt.Errorf("got %d values for layout %s", len(s.Values), l))
	}
	mem, err := memory.Allocate(l)
	if err != nil {
		return nil, invalid("bad_data", s.ID, err)
	}
	for i, v := range s.Values {
		mem.Store(i, v)
	}

	if s.SHA256 != "" {
		if err := ValidateChecksum(ComputeChecksum(mem.Data()), s.SHA256); err != nil {
			return nil, &ValidationError{
				Type:      "checksum_mismatch",
				Primitive: s.ID,
				Details:   "stored sha256 does not match decoded values",
				Err:       err,
			}
		}
	}
	return mem, nil
}

// maxReadSize bounds the bytes Read and ReadFile accept.
var maxReadSize int64 = MaxFileSize

func tooLarge(size int64) error {
	return &ValidationError{
		Type:    "file_too_large",
		Details: fmt.Sprintf("%d bytes, max %d", size, maxReadSize),
		Err:     ErrFileTooLarge,
	}
}

// Read decodes a graph file from r. Unknown fields are rejected and input
// longer than MaxFileSize fails with ErrFileTooLarge.
func Read(r io.Reader) (*topology.Topology, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxReadSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read graph file")
	}
	if int64(len(data)) > maxReadSize {
		return nil, tooLarge(int64(len(data)))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "parse graph file")
	}
	return Decode(&f)
}

// ReadFile decodes the graph file at path.
func ReadFile(path string) (*topology.Topology, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}
	if info.Size() > maxReadSize {
		return nil, tooLarge(info.Size())
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for graph loading
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return Read(file)
}
