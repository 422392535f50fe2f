package subscribe

import (
	"github.com/avi3tal/dataflow/internal/graph"
)

// Structure is an arbitrarily nested shape over graph outputs: a single
// value, an ordered list, a fixed-arity labeled record, or a key-unique
// map. The four variants below are the only recognized kinds; anything else
// encountered during traversal is a contract violation.
type Structure interface {
	isStructure()
}

// Value is a single graph output leaf
type Value struct {
	Out *graph.Output
}

// List is an ordered sequence of structures
type List struct {
	Elems []Structure
}

// Field is one labeled slot of a Record
type Field struct {
	Name  string
	Value Structure
}

// Record is a fixed-arity labeled structure. Field order is part of the
// shape and is preserved by Apply.
type Record struct {
	Name   string
	Fields []Field
}

// Map is a key-unique mapping of structures. Key iteration order is not
// contractual.
type Map struct {
	Entries map[string]Structure
}

func (Value) isStructure()  {}
func (List) isStructure()   {}
func (Record) isStructure() {}
func (Map) isStructure()    {}

// ValueOf wraps a single output as a Structure
func ValueOf(out *graph.Output) Structure {
	return Value{Out: out}
}

// ListOf builds an ordered list structure
func ListOf(elems ...Structure) Structure {
	return List{Elems: elems}
}

// RecordOf builds a fixed-arity labeled record structure
func RecordOf(name string, fields ...Field) Structure {
	return Record{Name: name, Fields: fields}
}

// MapOf wraps a key-unique mapping as a Structure
func MapOf(entries map[string]Structure) Structure {
	return Map{Entries: entries}
}

// Transform maps one graph output to its replacement
type Transform func(out *graph.Output) (*graph.Output, error)

// Apply rebuilds s with every leaf output passed through transform exactly
// once. The result has identical shape: the same container kind at every
// level, the same list lengths and record fields in order, and the same map
// keys. A nil structure, a nil leaf output, or an unrecognized variant
// fails with UnsupportedStructureError and aborts the whole traversal.
func Apply(s Structure, transform Transform) (Structure, error) {
	switch v := s.(type) {
	case Value:
		if v.Out == nil {
			return nil, &UnsupportedStructureError{Value: v, Kind: "Value with nil output"}
		}
		out, err := transform(v.Out)
		if err != nil {
			return nil, err
		}
		return Value{Out: out}, nil

	case List:
		elems := make([]Structure, len(v.Elems))
		for i, e := range v.Elems {
			mapped, err := Apply(e, transform)
			if err != nil {
				return nil, err
			}
			elems[i] = mapped
		}
		return List{Elems: elems}, nil

	case Record:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			mapped, err := Apply(f.Value, transform)
			if err != nil {
				return nil, err
			}
			fields[i] = Field{Name: f.Name, Value: mapped}
		}
		return Record{Name: v.Name, Fields: fields}, nil

	case Map:
		entries := make(map[string]Structure, len(v.Entries))
		for k, e := range v.Entries {
			mapped, err := Apply(e, transform)
			if err != nil {
				return nil, err
			}
			entries[k] = mapped
		}
		return Map{Entries: entries}, nil

	default:
		return nil, newUnsupportedStructureError(s)
	}
}
