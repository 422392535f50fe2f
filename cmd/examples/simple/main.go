package main

import (
	"fmt"
	"log"

	"github.com/avi3tal/dataflow/internal/graph"
	"github.com/avi3tal/dataflow/pkg/dataflow"
)

// auditValue taps the subscribed value through an identity read so the audit
// runs whenever anything downstream of the value is fetched.
func auditValue(value *graph.Output) ([]*graph.Operation, error) {
	read, err := value.Graph().Identity(value)
	if err != nil {
		return nil, err
	}
	return []*graph.Operation{read.Op()}, nil
}

func main() {
	b := dataflow.New("pricing")

	// Build a small pricing pipeline: total = price * rate + fee
	price := b.Placeholder("price")
	rate := b.Const("rate", 1.2)
	taxed := b.Mul(price, rate)
	fee := b.Const("fee", 5)
	total := b.Add(taxed, fee)
	if err := b.Err(); err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	fmt.Println("Before subscription:")
	fmt.Print(b.Graph().String())

	// Attach an audit to the taxed amount. Every consumer of the value is
	// rewired onto a gated pass-through, so fetching the total now forces
	// the audit first.
	watched, err := dataflow.SubscribeOutput(taxed, auditValue)
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	fmt.Println("\nAfter subscription:")
	fmt.Print(b.Graph().String())

	fmt.Printf("\nTotal now reads: %s\n", total.Op().Inputs()[0].Name())
	fmt.Printf("Pass-through gated on: %s\n", watched.Op().ControlInputs()[0].Name())

	if err := b.Finalize(); err != nil {
		log.Fatalf("Failed to finalize: %v", err)
	}

	// Expected rewiring:
	// Add(Mul, fee) -> Add(Mul/subscription/Identity_1, fee)
	// with the pass-through gated on the audit read of Mul.
}
