package graph

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Info represents the graph structure for visualization
type Info struct {
	Graph string   `json:"graph"`
	Name  string   `json:"name"`
	Ops   []OpInfo `json:"ops"`
}

// OpInfo is one operation entry in an Info snapshot
type OpInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"op"`
	Inputs   []string `json:"input,omitempty"`
	Controls []string `json:"control,omitempty"`
}

// GraphInfo returns a snapshot of the graph structure, operations in
// insertion order.
func (g *Graph) GraphInfo() *Info {
	info := &Info{
		Graph: g.graphID,
		Name:  g.name,
		Ops:   make([]OpInfo, 0, len(g.ops)),
	}

	for _, op := range g.ops {
		entry := OpInfo{
			Name: op.name,
			Type: op.opType,
		}
		for _, in := range op.inputs {
			entry.Inputs = append(entry.Inputs, in.Name())
		}
		for _, ctrl := range op.controlInputs {
			entry.Controls = append(entry.Controls, ctrl.name)
		}
		info.Ops = append(info.Ops, entry)
	}

	return info
}

// String renders a deterministic multi-line dump of the graph, one line per
// operation with data inputs in parentheses and control inputs as ^name
// markers.
func (g *Graph) String() string {
	info := g.GraphInfo()

	var b strings.Builder
	fmt.Fprintf(&b, "graph %s (%s)\n", info.Name, info.Graph)
	for _, op := range info.Ops {
		fmt.Fprintf(&b, "  %s = %s(%s)", op.Name, op.Type, strings.Join(op.Inputs, ", "))
		for _, ctrl := range op.Controls {
			fmt.Fprintf(&b, " ^%s", ctrl)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ExportJSON serializes the graph snapshot for external tooling
func (g *Graph) ExportJSON() ([]byte, error) {
	return sonic.Marshal(g.GraphInfo())
}
