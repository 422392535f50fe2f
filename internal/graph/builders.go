package graph

// Const creates a constant-valued operation and returns its output
func (g *Graph) Const(name string, value any) (*Output, error) {
	op, err := g.AddOperation(OpSpec{
		Type:       "Const",
		Name:       name,
		Attrs:      map[string]any{"value": value},
		NumOutputs: 1,
	})
	if err != nil {
		return nil, err
	}
	return op.outputs[0], nil
}

// Placeholder creates an operation standing for an externally supplied value
func (g *Graph) Placeholder(name string) (*Output, error) {
	op, err := g.AddOperation(OpSpec{
		Type:       "Placeholder",
		Name:       name,
		NumOutputs: 1,
	})
	if err != nil {
		return nil, err
	}
	return op.outputs[0], nil
}

// Identity creates a pass-through operation whose output equals value
func (g *Graph) Identity(value *Output) (*Output, error) {
	op, err := g.AddOperation(OpSpec{
		Type:       "Identity",
		Inputs:     []*Output{value},
		NumOutputs: 1,
	})
	if err != nil {
		return nil, err
	}
	return op.outputs[0], nil
}

// Add creates an operation producing the sum of x and y
func (g *Graph) Add(x, y *Output) (*Output, error) {
	return g.binaryOp("Add", x, y)
}

// Mul creates an operation producing the product of x and y
func (g *Graph) Mul(x, y *Output) (*Output, error) {
	return g.binaryOp("Mul", x, y)
}

// NoOp creates an operation with no inputs and no outputs, useful purely as
// a control dependency anchor.
func (g *Graph) NoOp(name string) (*Operation, error) {
	return g.AddOperation(OpSpec{
		Type: "NoOp",
		Name: name,
	})
}

func (g *Graph) binaryOp(opType string, x, y *Output) (*Output, error) {
	op, err := g.AddOperation(OpSpec{
		Type:       opType,
		Inputs:     []*Output{x, y},
		NumOutputs: 1,
	})
	if err != nil {
		return nil, err
	}
	return op.outputs[0], nil
}
