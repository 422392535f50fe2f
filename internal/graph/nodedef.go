package graph

import (
	"github.com/bytedance/sonic"
)

// NodeDef is the serialized wire form of an operation. Data inputs encode as
// "producer" or "producer:slot", control inputs append as "^producer".
type NodeDef struct {
	Name  string         `json:"name"`
	Op    string         `json:"op"`
	Input []string       `json:"input,omitempty"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func (op *Operation) nodeDef() NodeDef {
	def := NodeDef{
		Name:  op.name,
		Op:    op.opType,
		Attrs: op.attrs,
	}
	for _, in := range op.inputs {
		def.Input = append(def.Input, in.Name())
	}
	for _, ctrl := range op.controlInputs {
		def.Input = append(def.Input, "^"+ctrl.name)
	}
	return def
}

// recomputeDef reserializes the operation. Called at construction and after
// every mutation so the def never goes stale.
func (op *Operation) recomputeDef() error {
	buf, err := sonic.Marshal(op.nodeDef())
	if err != nil {
		return err
	}
	op.def = buf
	return nil
}

// Def returns a copy of the operation's current serialized node def
func (op *Operation) Def() []byte {
	return append([]byte(nil), op.def...)
}
