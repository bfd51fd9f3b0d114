package primitive

import (
	"strings"

	"github.com/born-ml/layoutnet/internal/layout"
)

type policyKind int

const (
	policyAny policyKind = iota
	policyFixed
	policyOneOf
)

// Policy states which formats an input slot accepts.
type Policy struct {
	kind    policyKind
	formats []layout.Format
}

// Any accepts every format; the kernel handles mixed inputs itself.
func Any() Policy {
	return Policy{kind: policyAny}
}

// Fixed accepts exactly one format.
func Fixed(f layout.Format) Policy {
	return Policy{kind: policyFixed, formats: []layout.Format{f}}
}

// OneOf accepts any of the given formats. The first one is the reorder target
// for producers in other formats.
func OneOf(formats ...layout.Format) Policy {
	if len(formats) == 1 {
		return Fixed(formats[0])
	}
	return Policy{kind: policyOneOf, formats: formats}
}

// IsAgnostic reports whether the slot accepts any format.
func (p Policy) IsAgnostic() bool {
	return p.kind == policyAny
}

// Accepts reports whether f can be consumed without a reorder.
func (p Policy) Accepts(f layout.Format) bool {
	if p.kind == policyAny {
		return true
	}
	for _, ok := range p.formats {
		if ok == f {
			return true
		}
	}
	return false
}

// Target returns the format a producer in f must be converted to.
// It returns f itself when no conversion is needed.
func (p Policy) Target(f layout.Format) layout.Format {
	if p.Accepts(f) {
		return f
	}
	return p.formats[0]
}

// String describes the policy, e.g. "any", "bfyx" or "{bfyx|yxfb}".
func (p Policy) String() string {
	switch p.kind {
	case policyAny:
		return "any"
	case policyFixed:
		return p.formats[0].String()
	default:
		names := make([]string, len(p.formats))
		for i, f := range p.formats {
			names[i] = f.String()
		}
		return "{" + strings.Join(names, "|") + "}"
	}
}
