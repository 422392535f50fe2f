package subscribe

import (
	"fmt"
)

// UnsupportedStructureError reports a value encountered during structure
// traversal that is not one of the recognized kinds.
type UnsupportedStructureError struct {
	// Value is the offending value
	Value any
	// Kind is the observed kind of the value
	Kind string
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("unsupported structure: argument %v has invalid kind %q", e.Value, e.Kind)
}

func newUnsupportedStructureError(v any) *UnsupportedStructureError {
	return &UnsupportedStructureError{
		Value: v,
		Kind:  fmt.Sprintf("%T", v),
	}
}
