package energy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/sparsenum/confspace"
)

var p = confspace.P

func newTestMatrix(t *testing.T) *Matrix {
	t.Helper()
	m := NewMatrix()
	m.AddOne(p(0, 0), 1)
	m.AddOne(p(0, 1), 2)
	m.AddOne(p(1, 1), 4)
	require.NoError(t, m.AddPair(p(1, 1), p(0, 1), 8))
	require.NoError(t, m.AddPair(p(1, 0), p(2, 0), 16))
	require.NoError(t, m.AddTerm(confspace.MustNew(p(0, 1), p(1, 1), p(2, 0)), 32))
	return m
}

func TestMatrixScore(t *testing.T) {
	m := newTestMatrix(t)
	tests := []struct {
		a    confspace.Assignment
		want float64
	}{
		{confspace.Empty, 0},
		{confspace.MustNew(p(0, 0)), 1},
		{confspace.MustNew(p(0, 1), p(1, 1)), 2 + 4 + 8},
		{confspace.MustNew(p(0, 1), p(1, 1), p(2, 0)), 2 + 4 + 8 + 32},
		{confspace.MustNew(p(0, 0), p(1, 0), p(2, 0)), 1 + 16},
	}
	for _, test := range tests {
		require.Equal(t, test.want, m.Score(test.a), "score of %v", test.a)
	}
}

func TestMatrixScoreDelta(t *testing.T) {
	m := newTestMatrix(t)
	prior := confspace.MustNew(p(0, 1))
	add := confspace.MustNew(p(1, 1), p(2, 0))
	full := confspace.MustCombine(prior, add)
	require.Equal(t, float64(4+8+32), m.ScoreDelta(prior, add))
	require.Equal(t, m.Score(full)-m.Score(prior), m.ScoreDelta(prior, add))
	require.Equal(t, m.Score(full), m.ScoreDelta(confspace.Empty, full))
	require.Equal(t, float64(0), m.ScoreDelta(full, confspace.Empty))
}

func TestMatrixTerms(t *testing.T) {
	m := newTestMatrix(t)
	require.NoError(t, m.AddTerm(confspace.MustNew(p(0, 1), p(1, 1), p(2, 0)), -32))
	require.Error(t, m.AddTerm(confspace.Empty, 1))
	require.ErrorIs(t, m.AddPair(p(0, 0), p(0, 1), 1), ErrTerm)
	terms := m.Terms()
	require.Len(t, terms, 5, "zeroed higher term must be dropped")
}

func TestFunc(t *testing.T) {
	f := Func(func(a confspace.Assignment) float64 {
		var res float64
		for _, pr := range a {
			res += float64(pr.Choice) * float64(pr.Pos+1)
		}
		return res
	})
	prior := confspace.MustNew(p(0, 1))
	add := confspace.MustNew(p(1, 1))
	require.Equal(t, float64(1), f.Score(prior))
	require.Equal(t, float64(2), f.ScoreDelta(prior, add))
	require.Equal(t, float64(0), f.ScoreDelta(prior, confspace.Empty))
	require.Panics(t, func() { f.ScoreDelta(prior, confspace.MustNew(p(0, 0))) })
}
