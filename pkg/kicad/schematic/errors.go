package schematic

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches every *SyntaxError
	ErrSyntax = errors.New("schematic: syntax error")

	// ErrUnsupportedVersion matches every *UnsupportedVersionError
	ErrUnsupportedVersion = errors.New("schematic: unsupported format version")

	// ErrFieldNotFound matches every *FieldNotFoundError
	ErrFieldNotFound = errors.New("schematic: field not found")

	// ErrBuiltinField is returned when an update tries to remove field 0..3
	ErrBuiltinField = errors.New("schematic: built-in fields cannot be removed")
)

// SyntaxError reports malformed known structure
type SyntaxError struct {
	File   string // Source file, may be empty
	Line   int    // 1-based line number
	Detail string
}

func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Detail)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Detail)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// UnsupportedVersionError reports a header version this package does not read
type UnsupportedVersionError struct {
	File    string
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported schematic format version %d (supported %d-%d)",
		e.Version, MinSupportedVersion, MaxSupportedVersion)
}

func (e *UnsupportedVersionError) Is(target error) bool { return target == ErrUnsupportedVersion }

// FieldNotFoundError reports an update on a field the component lacks
type FieldNotFoundError struct {
	Reference string
	Index     int
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("component %s has no field %d", e.Reference, e.Index)
}

func (e *FieldNotFoundError) Is(target error) bool { return target == ErrFieldNotFound }
