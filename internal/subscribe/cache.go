package subscribe

import (
	"github.com/avi3tal/dataflow/internal/graph"
)

// ControlOutputCache inverts a graph's control-dependency edges: the graph
// natively indexes only operation -> control inputs, while splicing needs
// operation -> the operations that depend on it. The inversion costs one
// full scan per graph, so it is computed lazily on the first query for a
// graph and memoized by graph identity.
//
// The cached inversion reflects the graph at the moment of that first
// query; operations or control edges added afterward are not picked up.
// Callers that mutate the graph and need a fresh view build a new cache.
type ControlOutputCache struct {
	cache map[*graph.Graph]map[*graph.Operation][]*graph.Operation
}

// NewControlOutputCache creates an empty cache
func NewControlOutputCache() *ControlOutputCache {
	return &ControlOutputCache{
		cache: make(map[*graph.Graph]map[*graph.Operation][]*graph.Operation),
	}
}

// ControlOutputs returns the operations that declared op as a control
// dependency, in graph insertion order. An operation that is nobody's
// control dependency yields an empty result.
func (c *ControlOutputCache) ControlOutputs(op *graph.Operation) []*graph.Operation {
	g := op.Graph()
	outputs, ok := c.cache[g]
	if !ok {
		outputs = calcControlOutputs(g)
		c.cache[g] = outputs
	}
	return outputs[op]
}

// calcControlOutputs scans every operation in g once, inverting each
// control-input list into per-operation dependent lists.
func calcControlOutputs(g *graph.Graph) map[*graph.Operation][]*graph.Operation {
	outputs := make(map[*graph.Operation][]*graph.Operation)
	for _, op := range g.Operations() {
		for _, ctrl := range op.ControlInputs() {
			outputs[ctrl] = append(outputs[ctrl], op)
		}
	}
	return outputs
}
