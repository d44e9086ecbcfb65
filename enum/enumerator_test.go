package enum

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/sparsenum/brute"
	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
	"github.com/crillab/sparsenum/logger"
	"github.com/crillab/sparsenum/metrics"
	sptest "github.com/crillab/sparsenum/testutil"
)

var p = confspace.P

// linear is f(c0, c1) = c0 + 2*c1, over any subset of positions 0 and 1.
var linear = energy.Func(func(a confspace.Assignment) float64 {
	var res float64
	for _, pr := range a {
		res += float64(int(pr.Pos)+1) * float64(pr.Choice)
	}
	return res
})

func twoPositions(t *testing.T) *confspace.Space {
	t.Helper()
	space := confspace.NewSpace()
	require.NoError(t, space.Add(0, []confspace.Choice{0, 1}))
	require.NoError(t, space.Add(1, []confspace.Choice{0, 1}))
	return space
}

func newTestEnumerator(t *testing.T, root *decomp.Node, oracle energy.Oracle, opts ...Option) *Enumerator {
	t.Helper()
	e, err := New(root, oracle, opts...)
	require.NoError(t, err)
	require.NoError(t, e.Preprocess(context.Background(), false))
	return e
}

func drain(t *testing.T, e *Enumerator, ctx confspace.Assignment) []Completion {
	t.Helper()
	var res []Completion
	for {
		more, err := e.HasMore(ctx)
		require.NoError(t, err)
		if !more {
			return res
		}
		peek, err := e.Peek(ctx)
		require.NoError(t, err)
		comp, err := e.NextBest(ctx)
		require.NoError(t, err)
		require.Equal(t, peek, comp)
		if len(res) > 0 {
			require.LessOrEqual(t, res[len(res)-1].Score, comp.Score, "results out of order")
		}
		res = append(res, comp)
	}
}

func TestConcreteScenario(t *testing.T) {
	trees := map[string]*decomp.Spec{
		"single node":    {Lambda: []int{0, 1}},
		"chain":          {Lambda: []int{0}, Children: []*decomp.Spec{{M: []int{0}, Lambda: []int{1}}}},
		"empty boundary": {Lambda: []int{1}, Children: []*decomp.Spec{{Lambda: []int{0}}}},
		"two children":   {Children: []*decomp.Spec{{Lambda: []int{0}}, {Lambda: []int{1}}}},
	}
	want := []Completion{
		{Assignment: confspace.MustNew(p(0, 0), p(1, 0)), Score: 0},
		{Assignment: confspace.MustNew(p(0, 1), p(1, 0)), Score: 1},
		{Assignment: confspace.MustNew(p(0, 0), p(1, 1)), Score: 2},
		{Assignment: confspace.MustNew(p(0, 1), p(1, 1)), Score: 3},
	}
	for name, spec := range trees {
		t.Run(name, func(t *testing.T) {
			root, err := decomp.Build(twoPositions(t), nil, spec)
			require.NoError(t, err)
			e := newTestEnumerator(t, root, linear)
			require.Equal(t, want, drain(t, e, confspace.Empty))
			_, err = e.NextBest(confspace.Empty)
			require.ErrorIs(t, err, ErrExhausted)
		})
	}
}

func TestStateMachine(t *testing.T) {
	root, err := decomp.Build(twoPositions(t), nil, &decomp.Spec{Lambda: []int{0, 1}})
	require.NoError(t, err)
	e, err := New(root, linear)
	require.NoError(t, err)
	_, err = e.NextBest(confspace.Empty)
	require.ErrorIs(t, err, ErrNotReady)
	require.NoError(t, e.Preprocess(context.Background(), false))
	require.NoError(t, e.Preprocess(context.Background(), false), "second preprocessing is a no-op")
	require.Equal(t, 4, e.NbCandidates())

	state := func() HeapState {
		st, err := e.State(confspace.Empty)
		require.NoError(t, err)
		return st
	}
	require.Equal(t, Absent, state())
	more, err := e.HasMore(confspace.Empty)
	require.NoError(t, err)
	require.True(t, more)
	require.Equal(t, Seeded, state())
	for i := 0; i < 4; i++ {
		_, err = e.NextBest(confspace.Empty)
		require.NoError(t, err)
		if i < 3 {
			require.Equal(t, Active, state())
		}
	}
	require.Equal(t, Exhausted, state())
	require.Equal(t, "exhausted", state().String())
	_, err = e.NextBest(confspace.Empty)
	require.ErrorIs(t, err, ErrExhausted)
	// Exhaustion is not a fault.
	more, err = e.HasMore(confspace.Empty)
	require.NoError(t, err)
	require.False(t, more)
}

func TestPeek(t *testing.T) {
	root, err := decomp.Build(twoPositions(t), nil, &decomp.Spec{Lambda: []int{0, 1}})
	require.NoError(t, err)
	e := newTestEnumerator(t, root, linear)
	first, err := e.Peek(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, confspace.MustNew(p(0, 0), p(1, 0)), first.Assignment)
	require.Zero(t, first.Score)
	again, err := e.Peek(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, first, again, "peeking does not consume")
	st, err := e.State(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, Seeded, st)

	got, err := e.NextBest(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, first, got)
	next, err := e.Peek(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, confspace.MustNew(p(0, 1), p(1, 0)), next.Assignment)
	require.Equal(t, 1.0, next.Score)
	require.Len(t, drain(t, e, confspace.Empty), 3)
	_, err = e.Peek(confspace.Empty)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestBruteForceBijection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 6; n++ {
		for i := 0; i < 10; i++ {
			pb, err := sptest.RandomProblem(rng, n, 2)
			require.NoError(t, err)
			e := newTestEnumerator(t, pb.Root, pb.Matrix)
			got := drain(t, e, confspace.Empty)
			want := brute.Enumerate(pb.Space, pb.Space.Positions(), pb.Matrix)
			require.Len(t, got, len(want), "tree:\n%s", pb.Root)
			require.Equal(t, int64(len(want)), pb.Root.TotalConformations().Int64())
			seen := make(map[confspace.Key]bool)
			for _, comp := range got {
				key := comp.Assignment.Key()
				require.False(t, seen[key], "%v returned twice", comp.Assignment)
				seen[key] = true
			}
			for _, r := range want {
				require.True(t, seen[r.Assignment.Key()], "%v never returned", r.Assignment)
			}
		}
	}
}

// Energies are integers: ties are frequent, so only scores are compared prefix by prefix.
func TestRandomDifferential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 60; i++ {
		pb, err := sptest.RandomProblem(rng, 4+rng.Intn(3), 3)
		require.NoError(t, err)
		parallel := i%2 == 0
		e, err := New(pb.Root, pb.Matrix)
		require.NoError(t, err)
		require.NoError(t, e.Preprocess(context.Background(), parallel))
		got := drain(t, e, confspace.Empty)
		want := brute.Enumerate(pb.Space, pb.Space.Positions(), pb.Matrix)
		gotScores := make([]float64, len(got))
		for k, comp := range got {
			gotScores[k] = comp.Score
			require.Equal(t, pb.Matrix.Score(comp.Assignment), comp.Score)
		}
		require.Equal(t, brute.Scores(want), gotScores, "tree:\n%s", pb.Root)
	}
}

func TestSubtreeContexts(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tested := 0
	for tested < 20 {
		pb, err := sptest.RandomProblem(rng, 5, 2)
		require.NoError(t, err)
		var node *decomp.Node
		pb.Root.Walk(func(n *decomp.Node) {
			if node == nil && len(n.M()) > 0 {
				node = n
			}
		})
		if node == nil {
			continue
		}
		tested++
		e := newTestEnumerator(t, node, pb.Matrix)
		var below []confspace.Position
		for _, pos := range node.L() {
			if _, ok := node.AssignmentAt(0).Lookup(pos); !ok {
				below = append(below, pos)
			}
		}
		for idx := 0; idx < node.NbBoundaries(); idx++ {
			boundary := node.AssignmentAt(idx)
			var want []float64
			for _, r := range brute.Enumerate(pb.Space, below, pb.Matrix) {
				want = append(want, pb.Matrix.ScoreDelta(boundary, r.Assignment))
			}
			got := drain(t, e, boundary)
			require.Len(t, got, len(want))
			gotScores := make([]float64, len(got))
			for k, comp := range got {
				gotScores[k] = comp.Score
				require.Equal(t, boundary, node.ExtractM(comp.Assignment))
			}
			require.ElementsMatch(t, want, gotScores)
		}
	}
}

func TestIndependentContexts(t *testing.T) {
	space := twoPositions(t)
	require.NoError(t, space.Add(2, []confspace.Choice{0, 1}))
	root, err := decomp.Build(space, nil, &decomp.Spec{M: []int{0}, Lambda: []int{1}})
	require.NoError(t, err)
	e := newTestEnumerator(t, root, linear)
	ctx1 := confspace.MustNew(p(0, 1))
	ctx2 := confspace.MustNew(p(0, 1), p(2, 0))
	first, err := e.NextBest(ctx1)
	require.NoError(t, err)
	require.Equal(t, confspace.MustNew(p(0, 1), p(1, 0)), first.Assignment)
	// Another context with the same boundary has its own stream.
	got := drain(t, e, ctx2)
	require.Len(t, got, 2)
	require.Equal(t, confspace.MustNew(p(0, 1), p(1, 0), p(2, 0)), got[0].Assignment)
	require.Equal(t, float64(2), got[1].Score)
	rest := drain(t, e, ctx1)
	require.Len(t, rest, 1)
	require.Equal(t, confspace.MustNew(p(0, 1), p(1, 1)), rest[0].Assignment)
}

func TestFaults(t *testing.T) {
	root, err := decomp.Build(twoPositions(t), nil, &decomp.Spec{Lambda: []int{0}, Children: []*decomp.Spec{{M: []int{0}, Lambda: []int{1}}}})
	require.NoError(t, err)

	t.Run("context in subtree", func(t *testing.T) {
		e := newTestEnumerator(t, root, linear)
		_, err := e.NextBest(confspace.MustNew(p(1, 0)))
		require.ErrorIs(t, err, decomp.ErrScope)
		var f *Fault
		require.True(t, errors.As(err, &f))
		require.Equal(t, 0, f.Node)
		_, err2 := e.NextBest(confspace.Empty)
		require.Same(t, f, err2, "an aborted enumerator keeps returning its fault")
		_, err2 = e.HasMore(confspace.Empty)
		require.Same(t, f, err2)
		_, err2 = e.State(confspace.Empty)
		require.Same(t, f, err2)
	})

	t.Run("score mismatch", func(t *testing.T) {
		space := confspace.NewSpace()
		for pos := confspace.Position(0); pos < 3; pos++ {
			require.NoError(t, space.Add(pos, []confspace.Choice{0, 1}))
		}
		root, err := decomp.Build(space, nil, &decomp.Spec{
			Lambda:   []int{0},
			Children: []*decomp.Spec{{M: []int{0}, Lambda: []int{1}}, {M: []int{0}, Lambda: []int{2}}},
		})
		require.NoError(t, err)
		m := energy.NewMatrix()
		require.NoError(t, m.AddPair(p(1, 0), p(2, 0), -10)) // 1 and 2 never share a node.
		e := newTestEnumerator(t, root, m)
		_, err = e.NextBest(confspace.Empty)
		require.ErrorIs(t, err, ErrScoreMismatch)

		e = newTestEnumerator(t, root, m, WithChecks(false))
		comp, err := e.NextBest(confspace.Empty)
		require.NoError(t, err)
		require.Equal(t, float64(0), comp.Score)
	})
}

func catchFault(fn func()) (f *Fault) {
	defer func() {
		if r := recover(); r != nil {
			f = r.(*Fault)
		}
	}()
	fn()
	return nil
}

func TestInternalFaults(t *testing.T) {
	root, err := decomp.Build(twoPositions(t), nil, &decomp.Spec{Lambda: []int{0, 1}})
	require.NoError(t, err)
	e := newTestEnumerator(t, root, linear)

	q := &QueryHeap{q: newQueue(lessCandidate), popped: true, last: 10}
	q.q.insert(&Candidate{Lambda: confspace.MustNew(p(0, 0), p(1, 0)), Total: 5})
	f := catchFault(func() { e.pop(q) })
	require.NotNil(t, f)
	require.ErrorIs(t, f, ErrOrder)

	f = catchFault(func() { e.pop(q) })
	require.ErrorIs(t, f, ErrExhausted)

	dup := &Candidate{Lambda: confspace.MustNew(p(0, 0), p(1, 0)), Total: 1}
	q = &QueryHeap{q: newQueue(lessCandidate)}
	q.q.insert(dup)
	q.q.insert(&Candidate{Lambda: dup.Lambda, Total: 2})
	c := &completionCache{e: e, query: q, keys: hashset.New()}
	f = catchFault(func() { c.has(1) })
	require.ErrorIs(t, f, ErrDuplicate)

	tmpl := newTemplateHeap()
	tmpl.add(0, dup)
	tmpl.clone()
	f = catchFault(func() { tmpl.add(0, dup) })
	require.ErrorIs(t, f, ErrSealed)
}

func TestObservability(t *testing.T) {
	log, logs := logger.NewObserverLogger("debug")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	root, err := decomp.Build(twoPositions(t), nil, &decomp.Spec{Lambda: []int{0}, Children: []*decomp.Spec{{M: []int{0}, Lambda: []int{1}}}})
	require.NoError(t, err)
	e := newTestEnumerator(t, root, linear, WithLogger(log), WithMetrics(m))
	drain(t, e, confspace.Empty)
	assert.Equal(t, 1, logs.FilterMessage("templates built").Len())
	assert.Positive(t, logs.FilterMessage("query heap created").Len())
	assert.Equal(t, float64(4), testutil.ToFloat64(m.ResultsTotal.WithLabelValues("conformation")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.LocalConfsTotal.WithLabelValues("0")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.LocalConfsTotal.WithLabelValues("1")))
}
