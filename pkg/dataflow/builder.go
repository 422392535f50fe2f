package dataflow

import (
	"fmt"

	"github.com/avi3tal/dataflow/internal/graph"
)

// Builder is the top-level fluent surface. Wraps an internal graph and
// records the first construction error; subsequent calls become no-ops so
// chains stay readable and the error is checked once via Err.
type Builder struct {
	graph *graph.Graph
	err   error
}

// New creates a builder with a fresh underlying graph
func New(name string, opts ...graph.Option) *Builder {
	return &Builder{graph: graph.NewGraph(name, opts...)}
}

// Graph exposes the underlying graph for direct operations
func (b *Builder) Graph() *graph.Graph {
	return b.graph
}

// Err returns the first error recorded by the chain, if any
func (b *Builder) Err() error {
	return b.err
}

// Const adds a constant-valued operation
func (b *Builder) Const(name string, value any) *graph.Output {
	if b.err != nil {
		return nil
	}
	out, err := b.graph.Const(name, value)
	if err != nil {
		b.err = fmt.Errorf("Const(%q) failed: %w", name, err)
		return nil
	}
	return out
}

// Placeholder adds an externally supplied value
func (b *Builder) Placeholder(name string) *graph.Output {
	if b.err != nil {
		return nil
	}
	out, err := b.graph.Placeholder(name)
	if err != nil {
		b.err = fmt.Errorf("Placeholder(%q) failed: %w", name, err)
		return nil
	}
	return out
}

// Identity adds a pass-through of value
func (b *Builder) Identity(value *graph.Output) *graph.Output {
	if b.err != nil {
		return nil
	}
	out, err := b.graph.Identity(value)
	if err != nil {
		b.err = fmt.Errorf("Identity failed: %w", err)
		return nil
	}
	return out
}

// Add wires the sum of x and y
func (b *Builder) Add(x, y *graph.Output) *graph.Output {
	if b.err != nil {
		return nil
	}
	out, err := b.graph.Add(x, y)
	if err != nil {
		b.err = fmt.Errorf("Add failed: %w", err)
		return nil
	}
	return out
}

// Mul wires the product of x and y
func (b *Builder) Mul(x, y *graph.Output) *graph.Output {
	if b.err != nil {
		return nil
	}
	out, err := b.graph.Mul(x, y)
	if err != nil {
		b.err = fmt.Errorf("Mul failed: %w", err)
		return nil
	}
	return out
}

// NoOp adds a control-only operation with no outputs
func (b *Builder) NoOp(name string) *graph.Operation {
	if b.err != nil {
		return nil
	}
	op, err := b.graph.NoOp(name)
	if err != nil {
		b.err = fmt.Errorf("NoOp(%q) failed: %w", name, err)
		return nil
	}
	return op
}

// Finalize marks the underlying graph immutable and returns the first
// recorded chain error, if any.
func (b *Builder) Finalize() error {
	if b.err != nil {
		return b.err
	}
	b.graph.Finalize()
	return nil
}
