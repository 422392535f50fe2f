package graph

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultGraphName = "graph"

// Graph is a mutable dataflow graph under construction. Operations are
// appended in insertion order and may be rewired in place until the graph
// is finalized. Construction is single-threaded by convention; callers
// serialize concurrent access to the same graph.
type Graph struct {
	graphID string
	name    string

	ops        []*Operation
	byName     map[string]*Operation
	nameCounts map[string]int

	scope      string
	ctrlFrames [][]*Operation

	finalized bool
	logger    *slog.Logger
}

type Option func(*Graph)

func WithGraphID(id string) Option {
	return func(g *Graph) {
		g.graphID = id
	}
}

// WithLogger sets the logger used for construction tracing
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// NewGraph creates a new empty graph instance
func NewGraph(name string, opt ...Option) *Graph {
	graphName := defaultGraphName
	if name != "" {
		graphName = name
	}

	g := Graph{
		graphID:    uuid.New().String(),
		byName:     make(map[string]*Operation),
		nameCounts: make(map[string]int),
		logger:     slog.Default(),
	}
	for _, o := range opt {
		o(&g)
	}

	// remove spaces
	graphName = strings.ReplaceAll(graphName, " ", "-")
	g.name = graphName
	// prepend graph name to graphID
	g.graphID = fmt.Sprintf("%s-%s", graphName, g.graphID)
	return &g
}

// ID returns the unique identifier of the graph
func (g *Graph) ID() string {
	return g.graphID
}

// Name returns the graph name
func (g *Graph) Name() string {
	return g.name
}

// AddOperation appends a new operation built from spec, applying the current
// name scope and any ambient control dependencies. The requested name is
// uniquified against every name already in the graph.
func (g *Graph) AddOperation(spec OpSpec) (*Operation, error) {
	if g.finalized {
		return nil, ErrGraphFinalized
	}
	if spec.Type == "" {
		return nil, errors.New("operation type is required")
	}
	for i, in := range spec.Inputs {
		if in == nil {
			return nil, errors.Wrapf(ErrNilInput, "input %d of %q", i, spec.Type)
		}
		if in.op.graph != g {
			return nil, errors.Wrapf(ErrGraphMismatch, "input %d of %q", i, spec.Type)
		}
	}

	base := spec.Name
	if base == "" {
		base = spec.Type
	}
	name := g.uniqueName(g.scope + base)

	op := &Operation{
		name:   name,
		opType: spec.Type,
		inputs: append([]*Output(nil), spec.Inputs...),
		attrs:  spec.Attrs,
		graph:  g,
	}
	op.outputs = make([]*Output, spec.NumOutputs)
	for i := range op.outputs {
		op.outputs[i] = &Output{op: op, index: i}
	}
	op.controlInputs = g.ambientControls()

	if err := op.recomputeDef(); err != nil {
		return nil, errors.Wrapf(err, "cannot serialize operation %q", name)
	}

	// Register the new op as a consumer of each input, one entry per
	// consuming edge.
	for _, in := range spec.Inputs {
		in.consumers = append(in.consumers, op)
	}
	g.ops = append(g.ops, op)
	g.byName[name] = op

	g.logger.Debug("operation added",
		"graph", g.graphID,
		"name", name,
		"type", spec.Type,
	)
	return op, nil
}

// Operations returns every operation in the graph in insertion order
func (g *Graph) Operations() []*Operation {
	return append([]*Operation(nil), g.ops...)
}

// Operation looks up an operation by its full name
func (g *Graph) Operation(name string) (*Operation, bool) {
	op, ok := g.byName[name]
	return op, ok
}

// Finalize marks the graph immutable. Any subsequent addition or rewiring
// fails with ErrGraphFinalized.
func (g *Graph) Finalize() {
	g.finalized = true
	g.logger.Debug("graph finalized", "graph", g.graphID, "ops", len(g.ops))
}

// Finalized reports whether the graph has been finalized
func (g *Graph) Finalized() bool {
	return g.finalized
}

// WithNameScope runs fn with the graph's name-scope prefix adjusted. A
// relative name appends "name/" to the current prefix, a name with a trailing
// slash replaces the whole prefix, and an empty name resets to the root
// scope. Operations created inside fn get the prefix applied before
// uniquification.
func (g *Graph) WithNameScope(name string, fn func() error) error {
	if fn == nil {
		return errors.Wrap(ErrNilInput, "name scope function")
	}

	prev := g.scope
	switch {
	case name == "":
		g.scope = ""
	case strings.HasSuffix(name, "/"):
		g.scope = name
	default:
		g.scope += name + "/"
	}
	defer func() { g.scope = prev }()

	return fn()
}

// WithControlDependencies runs fn with deps pushed as an ambient
// control-dependency frame: every operation created inside fn has the union
// of all active frames added to its control inputs. Opening a frame with no
// dependencies fails with ErrEmptyDependencySet.
func (g *Graph) WithControlDependencies(deps []*Operation, fn func() error) error {
	if fn == nil {
		return errors.Wrap(ErrNilInput, "control dependency function")
	}
	if len(deps) == 0 {
		return ErrEmptyDependencySet
	}
	for i, dep := range deps {
		if dep == nil {
			return errors.Wrapf(ErrNilInput, "control dependency %d", i)
		}
		if dep.graph != g {
			return errors.Wrapf(ErrGraphMismatch, "control dependency %q", dep.name)
		}
	}

	g.ctrlFrames = append(g.ctrlFrames, append([]*Operation(nil), deps...))
	defer func() { g.ctrlFrames = g.ctrlFrames[:len(g.ctrlFrames)-1] }()

	return fn()
}

// ambientControls flattens the active control-dependency frames into one
// ordered, deduplicated slice.
func (g *Graph) ambientControls() []*Operation {
	if len(g.ctrlFrames) == 0 {
		return nil
	}

	var all []*Operation
	seen := make(map[*Operation]bool)
	for _, frame := range g.ctrlFrames {
		for _, op := range frame {
			if !seen[op] {
				seen[op] = true
				all = append(all, op)
			}
		}
	}
	return all
}

// uniqueName reserves a graph-wide unique name: a taken name gets a
// "_<n>" suffix with a per-base counter.
func (g *Graph) uniqueName(name string) string {
	candidate := name
	for {
		if _, taken := g.byName[candidate]; !taken {
			return candidate
		}
		g.nameCounts[name]++
		candidate = fmt.Sprintf("%s_%d", name, g.nameCounts[name])
	}
}
