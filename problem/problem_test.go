package problem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
)

func TestParseFile(t *testing.T) {
	pb, err := ParseFile("testdata/small.yaml")
	require.NoError(t, err)
	require.Equal(t, 3, pb.Space.NbPositions())
	require.Equal(t, int64(12), pb.Space.Size().Int64())
	require.Len(t, pb.Matrix.Terms(), 6)

	root, err := pb.Build()
	require.NoError(t, err)
	require.NoError(t, decomp.CheckRunningIntersection(root))
	require.Empty(t, energy.Uncovered(root, pb.Matrix.Terms()))
	require.Equal(t, "[12] - L Set:[12 13 14] - M Set:[]\n+L--[13 14] - L Set:[12 13 14] - M Set:[12]\n", root.String())

	pos12, _ := pb.Index.Internal(12)
	pos13, _ := pb.Index.Internal(13)
	pos14, _ := pb.Index.Internal(14)
	a := confspace.MustNew(confspace.P(pos12, 1), confspace.P(pos13, 0), confspace.P(pos14, 1))
	require.Equal(t, -1+3-0.25, pb.Matrix.Score(a))
	require.Equal(t, "(12:1/VAL, 13:0/GLY, 14:1)", pb.Format(a))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"not yaml", "positions: [", ""},
		{"unknown field", "positions: [{id: 1, choices: [0]}]\ntree: {lambda: [1]}\nfoo: 1\n", "foo"},
		{"no positions", "tree: {lambda: [1]}\n", "no positions"},
		{"no tree", "positions: [{id: 1, choices: [0]}]\n", "no tree"},
		{"duplicate position", "positions: [{id: 1, choices: [0]}, {id: 1, choices: [0]}]\ntree: {lambda: [1]}\n", "positions"},
		{"labels mismatch", "positions: [{id: 1, choices: [0, 1], labels: [A]}]\ntree: {lambda: [1]}\n", "positions[0]"},
		{"unknown position", "positions: [{id: 1, choices: [0]}]\nenergies: {one: [{pos: 2, choice: 0, e: 1}]}\ntree: {lambda: [1]}\n", "energies.one[0]"},
		{"unknown choice", "positions: [{id: 1, choices: [0]}, {id: 2, choices: [0]}]\nenergies: {pairs: [{a: [1, 0], b: [2, 3], e: 1}]}\ntree: {lambda: [1, 2]}\n", "energies.pairs[0]"},
		{"same position", "positions: [{id: 1, choices: [0, 1]}]\nenergies: {pairs: [{a: [1, 0], b: [1, 1], e: 1}]}\ntree: {lambda: [1]}\n", "energies.pairs[0]"},
		{"bad couple", "positions: [{id: 1, choices: [0]}]\nenergies: {higher: [{tuple: [[1]], e: 1}]}\ntree: {lambda: [1]}\n", "energies.higher[0]"},
		{"conflicting tuple", "positions: [{id: 1, choices: [0, 1]}]\nenergies: {higher: [{tuple: [[1, 0], [1, 1]], e: 1}]}\ntree: {lambda: [1]}\n", "energies.higher[0]"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.content))
			require.ErrorIs(t, err, ErrSyntax)
			require.Contains(t, err.Error(), test.msg)
		})
	}
	_, err := ParseFile("testdata/missing.yaml")
	require.Error(t, err)
}

func TestBuildUnknownTreePosition(t *testing.T) {
	pb, err := Parse(strings.NewReader("positions: [{id: 1, choices: [0]}]\ntree: {lambda: [1], children: [{m: [1], lambda: [7]}]}\n"))
	require.NoError(t, err)
	_, err = pb.Build()
	require.ErrorIs(t, err, confspace.ErrUnknownPosition)
}
