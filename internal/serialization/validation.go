package serialization

import (
	"fmt"
	"strings"
	"unicode"
)

// Validation limits for resource protection.
const (
	MaxFileSize      = 100 * 1024 * 1024 // 100MB - maximum graph file size
	MaxPrimitives    = 100_000           // Maximum number of primitives in a file
	MaxPrimitiveName = 4096              // Maximum primitive name length
)

// ValidateFile checks the document structure before primitives are decoded.
func ValidateFile(f *File) error {
	if f.Version != FormatVersion {
		return &ValidationError{
			Type:    "unsupported_version",
			Details: fmt.Sprintf("got %d, want %d", f.Version, FormatVersion),
			Err:     ErrUnsupportedVersion,
		}
	}
	if len(f.Primitives) > MaxPrimitives {
		return &ValidationError{
			Type:    "too_many_primitives",
			Details: fmt.Sprintf("got %d, max %d", len(f.Primitives), MaxPrimitives),
			Err:     ErrTooManyPrimitives,
		}
	}

	for i := range f.Primitives {
		if err := validateName(f.Primitives[i].ID); err != nil {
			return &ValidationError{
				Type:      "invalid_name",
				Primitive: f.Primitives[i].ID,
				Details:   fmt.Sprintf("entry %d: %v", i, err),
				Err:       ErrInvalidName,
			}
		}
		for _, in := range f.Primitives[i].Inputs {
			if err := validateName(in); err != nil {
				return &ValidationError{
					Type:      "invalid_name",
					Primitive: f.Primitives[i].ID,
					Details:   fmt.Sprintf("input %q: %v", in, err),
					Err:       ErrInvalidName,
				}
			}
		}
	}
	return nil
}

// validateName rejects empty, oversized and whitespace-containing names.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if len(name) > MaxPrimitiveName {
		return fmt.Errorf("name length %d exceeds %d", len(name), MaxPrimitiveName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("name contains whitespace")
	}
	return nil
}
