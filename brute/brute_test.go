package brute

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/energy"
)

func TestEnumerate(t *testing.T) {
	space := confspace.NewSpace()
	require.NoError(t, space.Add(0, []confspace.Choice{0, 1}, "A", "B"))
	require.NoError(t, space.Add(1, []confspace.Choice{0, 1}, "A", "A"))
	m := energy.NewMatrix()
	m.AddOne(confspace.P(0, 1), 1)
	m.AddOne(confspace.P(1, 1), 2)
	res := Enumerate(space, space.Positions(), m)
	require.Equal(t, []float64{0, 1, 2, 3}, Scores(res))
	require.Equal(t, "(0:0, 1:0)", res[0].Assignment.String())
	require.Equal(t, "(0:1, 1:1)", res[3].Assignment.String())

	seqs := Sequences(space, space.Positions(), m)
	require.Len(t, seqs, 2)
	require.Equal(t, "A-A", seqs[0].Sequence.String())
	require.Equal(t, float64(0), seqs[0].Best.Score)
	require.Equal(t, "B-A", seqs[1].Sequence.String())
	require.Equal(t, float64(1), seqs[1].Best.Score)
}
