package main

import (
	"fmt"
	"log"

	"github.com/avi3tal/dataflow/internal/graph"
	"github.com/avi3tal/dataflow/internal/subscribe"
	"github.com/avi3tal/dataflow/pkg/dataflow"
)

// meterValue gates the value on an identity read, standing in for a metrics
// collector.
func meterValue(value *graph.Output) ([]*graph.Operation, error) {
	read, err := value.Graph().Identity(value)
	if err != nil {
		return nil, err
	}
	return []*graph.Operation{read.Op()}, nil
}

// traceValue gates the value on a control-only marker.
func traceValue(value *graph.Output) ([]*graph.Operation, error) {
	op, err := value.Graph().NoOp("trace")
	if err != nil {
		return nil, err
	}
	return []*graph.Operation{op}, nil
}

func main() {
	b := dataflow.New("features")

	// Two feature branches derived from one raw input.
	raw := b.Placeholder("raw")
	weight := b.Const("weight", 0.5)
	scaled := b.Mul(raw, weight)
	offset := b.Const("offset", 1)
	shifted := b.Add(raw, offset)
	combined := b.Add(scaled, shifted)
	if err := b.Err(); err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	// Subscribe both branches in one shot. The structure keeps its shape;
	// every leaf comes back as a gated pass-through.
	branches := dataflow.Map(map[string]dataflow.Structure{
		"scaled":  dataflow.Value(scaled),
		"shifted": dataflow.Value(shifted),
	})

	result, err := dataflow.Subscribe(branches, meterValue, traceValue)
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	m := result.(subscribe.Map)
	for key, entry := range m.Entries {
		pt := entry.(subscribe.Value).Out.Op()
		fmt.Printf("%s -> %s, gated on %d side-effect ops\n", key, pt.Name(), len(pt.ControlInputs()))
	}

	fmt.Printf("combined reads: %s, %s\n",
		combined.Op().Inputs()[0].Name(),
		combined.Op().Inputs()[1].Name(),
	)

	dump, err := b.Graph().ExportJSON()
	if err != nil {
		log.Fatalf("Failed to export graph: %v", err)
	}
	fmt.Printf("exported %d bytes of graph JSON\n", len(dump))

	// Both branches now flow through their pass-throughs, so evaluating
	// combined meters and traces each branch first.
}
