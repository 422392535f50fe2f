package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrGraphFinalized is returned when attempting to modify a finalized graph
	ErrGraphFinalized = errors.New("graph is finalized and cannot be modified")

	// ErrGraphMismatch is returned when an operation or output from another graph is used
	ErrGraphMismatch = errors.New("operation belongs to a different graph")

	// ErrNilInput is returned when a nil input or operation is supplied
	ErrNilInput = errors.New("input is nil")

	// ErrSlotOutOfRange is returned when addressing an input slot that does not exist
	ErrSlotOutOfRange = errors.New("input slot out of range")

	// ErrNotAControlInput is returned when removing a control input that is not registered
	ErrNotAControlInput = errors.New("operation is not a registered control input")

	// ErrEmptyDependencySet is returned when a control dependency scope is opened with no dependencies
	ErrEmptyDependencySet = errors.New("control dependency set is empty")
)

// MutationError represents an error that occurs while rewiring an operation in place
type MutationError struct {
	// Op is the mutation that failed
	Op string
	// Node is the name of the operation being mutated
	Node string
	// Err is the underlying error
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation failed: %s: node '%s': %v", e.Op, e.Node, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError creates a new MutationError
func NewMutationError(op string, node string, err error) error {
	return &MutationError{
		Op:   op,
		Node: node,
		Err:  err,
	}
}
