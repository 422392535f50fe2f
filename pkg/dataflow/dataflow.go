package dataflow

import (
	"github.com/avi3tal/dataflow/internal/graph"
	"github.com/avi3tal/dataflow/internal/subscribe"
)

// Structure is a nested shape over graph outputs accepted by Subscribe
type Structure = subscribe.Structure

// Field is one labeled slot of a record structure
type Field = subscribe.Field

// SideEffect builds a side-effect subgraph for one output and returns the
// operations that must execute before the output is fetched.
type SideEffect = subscribe.SideEffectFunc

// Value wraps a single output as a Structure
func Value(out *graph.Output) Structure {
	return subscribe.ValueOf(out)
}

// List builds an ordered list structure
func List(elems ...Structure) Structure {
	return subscribe.ListOf(elems...)
}

// Record builds a fixed-arity labeled record structure
func Record(name string, fields ...Field) Structure {
	return subscribe.RecordOf(name, fields...)
}

// Map wraps a key-unique mapping as a Structure
func Map(entries map[string]Structure) Structure {
	return subscribe.MapOf(entries)
}

// Subscribe attaches side-effect subgraphs to every output in s and returns
// an isomorphic structure of gated pass-through outputs. Existing consumers
// of each output are rewired to the pass-through, so fetching anything
// downstream triggers the side effects first.
func Subscribe(s Structure, effects ...SideEffect) (Structure, error) {
	return subscribe.Subscribe(s, effects...)
}

// SubscribeOutput subscribes a single output. See Subscribe.
func SubscribeOutput(out *graph.Output, effects ...SideEffect) (*graph.Output, error) {
	return subscribe.SubscribeOutput(out, effects...)
}
