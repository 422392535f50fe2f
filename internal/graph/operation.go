package graph

import (
	"fmt"

	"github.com/pkg/errors"
)

// OpSpec describes a single operation to add to a graph
type OpSpec struct {
	// Type identifies the operation kind, e.g. "Const" or "Identity"
	Type string
	// Name is the requested name; defaults to Type when empty
	Name string
	// Inputs are the ordered data inputs
	Inputs []*Output
	// Attrs carries serializable operation attributes
	Attrs map[string]any
	// NumOutputs is the number of output slots; control-only ops declare none
	NumOutputs int
}

// Operation is a graph vertex: one computation with an ordered list of data
// inputs, a set-like list of control inputs, and a fixed list of outputs
// created at construction. Operations are mutated in place through the
// rewiring API below; every mutation regenerates the serialized node def.
type Operation struct {
	name          string
	opType        string
	inputs        []*Output
	controlInputs []*Operation
	outputs       []*Output
	attrs         map[string]any
	def           []byte
	graph         *Graph
}

// Name returns the full, scope-qualified operation name
func (op *Operation) Name() string {
	return op.name
}

// Type returns the operation kind
func (op *Operation) Type() string {
	return op.opType
}

// Graph returns the graph owning the operation
func (op *Operation) Graph() *Graph {
	return op.graph
}

// Inputs returns a copy of the ordered data inputs
func (op *Operation) Inputs() []*Output {
	return append([]*Output(nil), op.inputs...)
}

// ControlInputs returns a copy of the registered control inputs
func (op *Operation) ControlInputs() []*Operation {
	return append([]*Operation(nil), op.controlInputs...)
}

// Outputs returns a copy of the operation's output slots
func (op *Operation) Outputs() []*Output {
	return append([]*Output(nil), op.outputs...)
}

// Output returns the output at slot i, or nil if the slot does not exist
func (op *Operation) Output(i int) *Output {
	if i < 0 || i >= len(op.outputs) {
		return nil
	}
	return op.outputs[i]
}

// NumOutputs returns the number of output slots
func (op *Operation) NumOutputs() int {
	return len(op.outputs)
}

// Attr retrieves an attribute value
func (op *Operation) Attr(key string) (any, bool) {
	v, ok := op.attrs[key]
	return v, ok
}

// UpdateInput replaces the data input at slot with value. Both outputs'
// consumer lists are maintained and the node def is regenerated.
// Preconditions: the graph is not finalized, value belongs to the same
// graph, and slot addresses an existing input.
func (op *Operation) UpdateInput(slot int, value *Output) error {
	if op.graph.finalized {
		return NewMutationError("UpdateInput", op.name, ErrGraphFinalized)
	}
	if value == nil {
		return NewMutationError("UpdateInput", op.name, ErrNilInput)
	}
	if value.op.graph != op.graph {
		return NewMutationError("UpdateInput", op.name, ErrGraphMismatch)
	}
	if slot < 0 || slot >= len(op.inputs) {
		return NewMutationError("UpdateInput", op.name,
			errors.Wrapf(ErrSlotOutOfRange, "slot %d with %d inputs", slot, len(op.inputs)))
	}

	old := op.inputs[slot]
	op.inputs[slot] = value
	old.removeConsumer(op)
	value.consumers = append(value.consumers, op)

	if err := op.recomputeDef(); err != nil {
		return NewMutationError("UpdateInput", op.name, err)
	}

	op.graph.logger.Debug("input rewired",
		"node", op.name,
		"slot", slot,
		"from", old.Name(),
		"to", value.Name(),
	)
	return nil
}

// AddControlInput registers ctrl as a control dependency of op. Adding an
// operation that is already registered is a no-op.
func (op *Operation) AddControlInput(ctrl *Operation) error {
	if op.graph.finalized {
		return NewMutationError("AddControlInput", op.name, ErrGraphFinalized)
	}
	if ctrl == nil {
		return NewMutationError("AddControlInput", op.name, ErrNilInput)
	}
	if ctrl.graph != op.graph {
		return NewMutationError("AddControlInput", op.name, ErrGraphMismatch)
	}

	for _, existing := range op.controlInputs {
		if existing == ctrl {
			return nil
		}
	}
	op.controlInputs = append(op.controlInputs, ctrl)

	if err := op.recomputeDef(); err != nil {
		return NewMutationError("AddControlInput", op.name, err)
	}

	op.graph.logger.Debug("control input added", "node", op.name, "control", ctrl.name)
	return nil
}

// RemoveControlInput drops ctrl from op's control inputs. Removing an
// operation that is not registered fails with ErrNotAControlInput.
func (op *Operation) RemoveControlInput(ctrl *Operation) error {
	if op.graph.finalized {
		return NewMutationError("RemoveControlInput", op.name, ErrGraphFinalized)
	}
	if ctrl == nil {
		return NewMutationError("RemoveControlInput", op.name, ErrNilInput)
	}

	for i, existing := range op.controlInputs {
		if existing != ctrl {
			continue
		}
		op.controlInputs = append(op.controlInputs[:i], op.controlInputs[i+1:]...)

		if err := op.recomputeDef(); err != nil {
			return NewMutationError("RemoveControlInput", op.name, err)
		}

		op.graph.logger.Debug("control input removed", "node", op.name, "control", ctrl.name)
		return nil
	}
	return NewMutationError("RemoveControlInput", op.name,
		errors.Wrapf(ErrNotAControlInput, "operation %q", ctrl.name))
}

// Output identifies one output slot of an operation and tracks the
// operations consuming it.
type Output struct {
	op        *Operation
	index     int
	consumers []*Operation
}

// Op returns the producing operation
func (o *Output) Op() *Operation {
	return o.op
}

// Index returns the slot index on the producing operation
func (o *Output) Index() int {
	return o.index
}

// Graph returns the graph owning the producing operation
func (o *Output) Graph() *Graph {
	return o.op.graph
}

// Consumers returns a copy of the operations reading this output, one entry
// per consuming edge: an operation reading the same output at several slots
// appears once per slot.
func (o *Output) Consumers() []*Operation {
	return append([]*Operation(nil), o.consumers...)
}

// Name returns the canonical "producer:slot" reference, with ":0" elided
// for the first slot.
func (o *Output) Name() string {
	if o.index == 0 {
		return o.op.name
	}
	return fmt.Sprintf("%s:%d", o.op.name, o.index)
}

// removeConsumer drops one consumer entry for op, leaving entries for any
// other slots intact.
func (o *Output) removeConsumer(op *Operation) {
	for i, c := range o.consumers {
		if c == op {
			o.consumers = append(o.consumers[:i], o.consumers[i+1:]...)
			return
		}
	}
}
