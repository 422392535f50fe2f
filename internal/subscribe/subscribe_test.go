package subscribe

import (
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/avi3tal/dataflow/internal/graph"
)

// markerEffect returns a side effect gating on n fresh NoOp markers. It
// never reads the subscribed value, which keeps consumer lists easy to
// assert on.
func markerEffect(n int) SideEffectFunc {
	return func(value *graph.Output) ([]*graph.Operation, error) {
		g := value.Graph()
		deps := make([]*graph.Operation, 0, n)
		for i := 0; i < n; i++ {
			op, err := g.NoOp("marker")
			if err != nil {
				return nil, err
			}
			deps = append(deps, op)
		}
		return deps, nil
	}
}

// auditEffect reads the subscribed value through an identity sink and gates
// on that sink.
func auditEffect(value *graph.Output) ([]*graph.Operation, error) {
	read, err := value.Graph().Identity(value)
	if err != nil {
		return nil, err
	}
	return []*graph.Operation{read.Op()}, nil
}

func TestSubscribeSingleValue(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("single")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	k, err := g.Const("k", 2)
	require.NoError(t, err)
	product, err := g.Mul(x, k)
	require.NoError(t, err)

	result, err := SubscribeOutput(x, markerEffect(1))
	require.NoError(t, err)
	require.NotSame(t, x, result)

	// The replacement is an identity pass-through under the producer's
	// subscription scope, gated on the side effect's marker.
	pt := result.Op()
	require.Equal(t, "Identity", pt.Type())
	require.Equal(t, "x/subscription/Identity", pt.Name())
	require.Equal(t, []*graph.Output{x}, pt.Inputs())

	ctrls := pt.ControlInputs()
	require.Len(t, ctrls, 1)
	require.Equal(t, "NoOp", ctrls[0].Type())
	require.Equal(t, "x/subscription/marker", ctrls[0].Name())

	// The pre-existing consumer reads the pass-through now.
	require.Same(t, result, product.Op().Inputs()[0])
	require.Same(t, k, product.Op().Inputs()[1])
	require.Equal(t, []*graph.Operation{product.Op()}, result.Consumers())

	// The original value feeds only the pass-through.
	require.Equal(t, []*graph.Operation{pt}, x.Consumers())
}

func TestSubscribeAggregatesEffectDeps(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("structured")
	left, err := g.Placeholder("left")
	require.NoError(t, err)
	right, err := g.Placeholder("right")
	require.NoError(t, err)
	sum, err := g.Add(left, right)
	require.NoError(t, err)

	s := MapOf(map[string]Structure{
		"left":  ValueOf(left),
		"right": ValueOf(right),
	})
	result, err := Subscribe(s, markerEffect(2), markerEffect(2))
	require.NoError(t, err)
	requireSameShape(t, s, result)

	m := result.(Map)
	leftPT := m.Entries["left"].(Value).Out
	rightPT := m.Entries["right"].(Value).Out
	require.NotSame(t, leftPT.Op(), rightPT.Op(), "each key gets its own pass-through")

	// Every pass-through is gated on all four markers, in effect order.
	for key, entry := range m.Entries {
		pt := entry.(Value).Out.Op()
		require.Equal(t, "Identity", pt.Type())

		names := make([]string, 0, 4)
		for _, ctrl := range pt.ControlInputs() {
			require.Equal(t, "NoOp", ctrl.Type())
			names = append(names, ctrl.Name())
		}
		require.Equal(t, []string{
			key + "/subscription/marker",
			key + "/subscription/marker_1",
			key + "/subscription/marker_2",
			key + "/subscription/marker_3",
		}, names)
	}

	require.Equal(t, []*graph.Output{leftPT, rightPT}, sum.Op().Inputs())
}

func TestSubscribeRewiresEverySlot(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("fanout")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	k, err := g.Const("k", 3)
	require.NoError(t, err)
	doubled, err := g.Add(x, x)
	require.NoError(t, err)
	scaled, err := g.Mul(x, k)
	require.NoError(t, err)

	result, err := SubscribeOutput(x, markerEffect(1))
	require.NoError(t, err)

	// Both slots of the two-slot consumer are rewired, not just the first.
	require.Equal(t, []*graph.Output{result, result}, doubled.Op().Inputs())
	require.Equal(t, []*graph.Output{result, k}, scaled.Op().Inputs())

	// One consumer entry per rewired edge.
	require.Len(t, result.Consumers(), 3)
	require.Equal(t, []*graph.Operation{result.Op()}, x.Consumers())
}

func TestSubscribeSwapsControlDependents(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("watched")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	watcher, err := g.NoOp("watcher")
	require.NoError(t, err)
	require.NoError(t, watcher.AddControlInput(x.Op()))

	result, err := SubscribeOutput(x, markerEffect(1))
	require.NoError(t, err)

	// The watcher's dependency on the producer moves to the pass-through.
	require.Equal(t, []*graph.Operation{result.Op()}, watcher.ControlInputs())

	var def graph.NodeDef
	require.NoError(t, sonic.Unmarshal(watcher.Def(), &def))
	require.Equal(t, []string{"^x/subscription/Identity"}, def.Input)
}

func TestSubscribeSideEffectReadsOriginal(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("audited")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	sink, err := g.Mul(x, x)
	require.NoError(t, err)

	result, err := SubscribeOutput(x, auditEffect)
	require.NoError(t, err)

	// The audit identity claimed the scoped name first, so the pass-through
	// got the uniquified one.
	require.Equal(t, "x/subscription/Identity_1", result.Op().Name())

	ctrls := result.Op().ControlInputs()
	require.Len(t, ctrls, 1)
	audit := ctrls[0]
	require.Equal(t, "x/subscription/Identity", audit.Name())

	// The audit subgraph reads the original value, never the pass-through.
	require.Equal(t, []*graph.Output{x}, audit.Inputs())

	require.Equal(t, []*graph.Output{result, result}, sink.Op().Inputs())
	require.Equal(t, []*graph.Operation{audit, result.Op()}, x.Consumers())
}

func TestSubscribeTwiceChains(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("layered")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	k, err := g.Const("k", 1)
	require.NoError(t, err)
	sink, err := g.Mul(x, k)
	require.NoError(t, err)

	first, err := SubscribeOutput(x, markerEffect(1))
	require.NoError(t, err)
	second, err := SubscribeOutput(x, markerEffect(1))
	require.NoError(t, err)
	require.NotSame(t, first, second)

	require.Equal(t, "x/subscription/Identity", first.Op().Name())
	require.Equal(t, "x/subscription/Identity_1", second.Op().Name())

	// Subscribing again layers a second pass-through between the value and
	// the first one; the original consumer keeps reading the first.
	require.Equal(t, []*graph.Output{second}, first.Op().Inputs())
	require.Equal(t, []*graph.Output{first, k}, sink.Op().Inputs())
	require.Equal(t, []*graph.Operation{second.Op()}, x.Consumers())

	// Each layer stays gated on its own marker.
	firstCtrls := first.Op().ControlInputs()
	require.Len(t, firstCtrls, 1)
	require.Equal(t, "x/subscription/marker", firstCtrls[0].Name())
	secondCtrls := second.Op().ControlInputs()
	require.Len(t, secondCtrls, 1)
	require.Equal(t, "x/subscription/marker_1", secondCtrls[0].Name())
}

func TestSubscribeStructureScopesPerLeaf(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("nested")
	a, err := g.Placeholder("a")
	require.NoError(t, err)
	b, err := g.Placeholder("b")
	require.NoError(t, err)
	c, err := g.Placeholder("c")
	require.NoError(t, err)

	s := ListOf(
		ValueOf(a),
		RecordOf("pair",
			Field{Name: "fst", Value: ValueOf(b)},
			Field{Name: "snd", Value: ValueOf(c)},
		),
	)
	result, err := Subscribe(s, markerEffect(1))
	require.NoError(t, err)
	requireSameShape(t, s, result)

	top := result.(List)
	require.Equal(t, "a/subscription/Identity", top.Elems[0].(Value).Out.Op().Name())
	rec := top.Elems[1].(Record)
	require.Equal(t, "b/subscription/Identity", rec.Fields[0].Value.(Value).Out.Op().Name())
	require.Equal(t, "c/subscription/Identity", rec.Fields[1].Value.(Value).Out.Op().Name())
}

func TestSubscribeEffectErrorPropagates(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("failing")
	x, err := g.Placeholder("x")
	require.NoError(t, err)

	boom := errors.New("effect exploded")
	failing := func(*graph.Output) ([]*graph.Operation, error) {
		return nil, boom
	}

	result, err := SubscribeOutput(x, failing)
	require.Nil(t, result)
	require.Equal(t, boom, err, "side-effect errors pass through unwrapped")
}

func TestSubscribeRequiresDeps(t *testing.T) {
	t.Parallel()

	t.Run("ZeroEffects", func(t *testing.T) {
		t.Parallel()
		g := graph.NewGraph("nodeps")
		x, err := g.Placeholder("x")
		require.NoError(t, err)

		_, err = SubscribeOutput(x)
		require.ErrorIs(t, err, graph.ErrEmptyDependencySet)
	})

	t.Run("EffectsReturnNoDeps", func(t *testing.T) {
		t.Parallel()
		g := graph.NewGraph("nodeps")
		x, err := g.Placeholder("x")
		require.NoError(t, err)

		silent := func(*graph.Output) ([]*graph.Operation, error) {
			return nil, nil
		}
		_, err = SubscribeOutput(x, silent)
		require.ErrorIs(t, err, graph.ErrEmptyDependencySet)
	})
}

func TestSubscribeNilOutput(t *testing.T) {
	t.Parallel()
	_, err := SubscribeOutput(nil, markerEffect(1))

	var unsupported *UnsupportedStructureError
	require.ErrorAs(t, err, &unsupported)
}

func TestSubscribePartialSpliceOnFailure(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("partial")
	a, err := g.Placeholder("a")
	require.NoError(t, err)
	b, err := g.Placeholder("b")
	require.NoError(t, err)
	readA, err := g.Identity(a)
	require.NoError(t, err)
	readB, err := g.Identity(b)
	require.NoError(t, err)

	boom := errors.New("effect exploded")
	calls := 0
	flaky := func(value *graph.Output) ([]*graph.Operation, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return markerEffect(1)(value)
	}

	_, err = Subscribe(ListOf(ValueOf(a), ValueOf(b)), flaky)
	require.ErrorIs(t, err, boom)

	// The leaf processed before the failure stays spliced; there is no
	// rollback.
	require.Equal(t, "a/subscription/Identity", readA.Op().Inputs()[0].Op().Name())
	require.Same(t, b, readB.Op().Inputs()[0])
}

func TestSubscribeFinalizedGraph(t *testing.T) {
	t.Parallel()
	g := graph.NewGraph("frozen")
	x, err := g.Placeholder("x")
	require.NoError(t, err)
	g.Finalize()

	_, err = SubscribeOutput(x, markerEffect(1))
	require.ErrorIs(t, err, graph.ErrGraphFinalized)
}
