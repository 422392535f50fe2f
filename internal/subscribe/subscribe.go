package subscribe

import (
	"github.com/avi3tal/dataflow/internal/graph"
)

// SideEffectFunc builds a side-effect subgraph reading value and returns the
// operations the subscribed value must be gated on. Implementations must
// return a non-empty list; any error is propagated to the caller unchanged.
type SideEffectFunc func(value *graph.Output) ([]*graph.Operation, error)

// Subscribe attaches side-effect subgraphs to every output in s. Each leaf
// output is replaced by an identity pass-through that is gated, through
// control dependencies, on the operations returned by the side-effect
// functions, and every pre-existing consumer of the leaf is rewired to read
// the pass-through instead. Generated operations are grouped under a
// "<producer>/subscription/" name scope.
//
// The returned structure is isomorphic to s with every leaf replaced by its
// pass-through. Use the returned outputs in place of the originals for
// further construction: fetching anything downstream of them now triggers
// the side effects first.
//
// A failed call leaves the graph partially spliced for leaves already
// processed; callers should treat the graph as inconsistent and rebuild.
func Subscribe(s Structure, effects ...SideEffectFunc) (Structure, error) {
	cache := NewControlOutputCache()
	return Apply(s, func(out *graph.Output) (*graph.Output, error) {
		return spliceOutput(out, effects, cache)
	})
}

// SubscribeOutput subscribes a single output, without the structure
// wrapping. See Subscribe for semantics.
func SubscribeOutput(out *graph.Output, effects ...SideEffectFunc) (*graph.Output, error) {
	result, err := Subscribe(ValueOf(out), effects...)
	if err != nil {
		return nil, err
	}
	return result.(Value).Out, nil
}

// spliceOutput subscribes one output to a list of side effects, rewiring
// the output's existing consumers and control dependents onto the gated
// pass-through.
func spliceOutput(out *graph.Output, effects []SideEffectFunc, cache *ControlOutputCache) (*graph.Output, error) {
	op := out.Op()
	g := op.Graph()

	// Snapshot the (consumer, slot) pairs up front: the rewiring below
	// mutates the very consumer lists being read, and the side-effect ops
	// created next consume out themselves but must keep reading the
	// original. Consumers appear once per consuming edge, so visit each
	// operation once and capture every slot at which it reads out.
	type inputSlot struct {
		consumer *graph.Operation
		slot     int
	}
	var updateInputs []inputSlot
	visited := make(map[*graph.Operation]bool)
	for _, consumer := range out.Consumers() {
		if visited[consumer] {
			continue
		}
		visited[consumer] = true
		for slot, in := range consumer.Inputs() {
			if in == out {
				updateInputs = append(updateInputs, inputSlot{consumer: consumer, slot: slot})
			}
		}
	}

	updateControl := cache.ControlOutputs(op)

	// Trailing slash on the name scope to replace the scope.
	var passthrough *graph.Output
	err := g.WithNameScope(op.Name()+"/subscription/", func() error {
		var deps []*graph.Operation
		for _, effect := range effects {
			ops, err := effect(out)
			if err != nil {
				return err
			}
			deps = append(deps, ops...)
		}

		return g.WithControlDependencies(deps, func() error {
			var err error
			passthrough, err = g.Identity(out)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	for _, in := range updateInputs {
		if err := in.consumer.UpdateInput(in.slot, passthrough); err != nil {
			return nil, err
		}
	}

	for _, consumer := range updateControl {
		if err := consumer.RemoveControlInput(op); err != nil {
			return nil, err
		}
		if err := consumer.AddControlInput(passthrough.Op()); err != nil {
			return nil, err
		}
	}

	return passthrough, nil
}
