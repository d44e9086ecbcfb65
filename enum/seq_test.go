package enum

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/sparsenum/brute"
	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	sptest "github.com/crillab/sparsenum/testutil"
)

func drainSeq(t *testing.T, s *SeqEnumerator) []SeqResult {
	t.Helper()
	var res []SeqResult
	for {
		more, err := s.HasMore(confspace.Empty)
		require.NoError(t, err)
		if !more {
			return res
		}
		peek, err := s.Peek(confspace.Empty)
		require.NoError(t, err)
		r, err := s.NextBest(confspace.Empty)
		require.NoError(t, err)
		require.Equal(t, peek, r)
		res = append(res, r)
	}
}

func TestSeqConcrete(t *testing.T) {
	space := confspace.NewSpace()
	require.NoError(t, space.Add(0, []confspace.Choice{0, 1}, "ALA", "VAL"))
	require.NoError(t, space.Add(1, []confspace.Choice{0, 1}, "GLY", "GLY"))
	root, err := decomp.Build(space, nil, &decomp.Spec{Lambda: []int{0}, Children: []*decomp.Spec{{M: []int{0}, Lambda: []int{1}}}})
	require.NoError(t, err)
	s, err := NewSeq(root, linear)
	require.NoError(t, err)
	require.NoError(t, s.Preprocess(context.Background(), false))
	got := drainSeq(t, s)
	require.Len(t, got, 2)
	require.Equal(t, "ALA-GLY", got[0].Sequence.String())
	require.Equal(t, confspace.MustNew(p(0, 0), p(1, 0)), got[0].Best.Assignment)
	require.Equal(t, "VAL-GLY", got[1].Sequence.String())
	require.Equal(t, float64(1), got[1].Best.Score)
	st, err := s.State(confspace.Empty)
	require.NoError(t, err)
	require.Equal(t, Exhausted, st)
	_, err = s.NextBest(confspace.Empty)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestSeqRandomDifferential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 60; i++ {
		pb, err := sptest.RandomProblem(rng, 3+rng.Intn(4), 3)
		require.NoError(t, err)
		s, err := NewSeq(pb.Root, pb.Matrix)
		require.NoError(t, err)
		require.NoError(t, s.Preprocess(context.Background(), i%2 == 1))
		got := drainSeq(t, s)
		want := brute.Sequences(pb.Space, pb.Space.Positions(), pb.Matrix)
		require.Len(t, got, len(want), "tree:\n%s", pb.Root)

		best := make(map[string]float64)
		for _, r := range want {
			best[r.Sequence.String()] = r.Best.Score
		}
		seen := make(map[string]bool)
		for k, r := range got {
			seq := r.Sequence.String()
			require.False(t, seen[seq], "sequence %s returned twice", seq)
			seen[seq] = true
			require.Equal(t, best[seq], r.Best.Score, "sequence %s", seq)
			require.Equal(t, r.Sequence, r.Best.Assignment.Sequence(pb.Space))
			require.Equal(t, want[k].Best.Score, r.Best.Score, "rank %d", k)
		}
	}
}
