package csvmap

import (
	"errors"
	"fmt"
)

// ErrUnsupportedKind is matched by every UnsupportedKindError.
var ErrUnsupportedKind = errors.New("csvmap: unsupported field kind")

// IOError reports a source that could not be opened or read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("csvmap: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("csvmap: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConversionError reports raw text that cannot be coerced to the field's kind.
type ConversionError struct {
	Field string
	Kind  Kind
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvmap: field %q: cannot convert %q to %s: %v", e.Field, e.Value, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnsupportedKindError is returned while building a schema whose field
// declares a kind without a converter.
type UnsupportedKindError struct {
	Field   string
	Kind    string
	Suggest string // closest known kind name, if any
}

func (e *UnsupportedKindError) Error() string {
	if e == nil {
		return ""
	}
	if e.Suggest != "" {
		return fmt.Sprintf("csvmap: field %q: unsupported kind %q (did you mean %q?)", e.Field, e.Kind, e.Suggest)
	}
	return fmt.Sprintf("csvmap: field %q: unsupported kind %q", e.Field, e.Kind)
}

func (e *UnsupportedKindError) Is(target error) bool { return target == ErrUnsupportedKind }

// MappingError wraps a row-level failure together with the offending line.
// Line is the 1-based position of the line in its source.
type MappingError struct {
	Line int
	Text string
	Err  error
}

func (e *MappingError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvmap: line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *MappingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
