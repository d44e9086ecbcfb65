package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crillab/sparsenum/config"
)

const smallFile = "../problem/testdata/small.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(config.NewViper(t.TempDir()))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "none"))
	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestEnumerateCommand(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})
	out, err := execute(t, "enumerate", smallFile, "--limit", "3")
	require.NoError(t, err)
	res := lines(out)
	require.Len(t, res, 3)
	require.Equal(t, "1\t-2\t(12:0/ALA, 13:1/GLY, 14:1)", res[0])

	out, err = execute(t, "enumerate", smallFile, "--limit", "0", "--parallel")
	require.NoError(t, err)
	res = lines(out)
	require.Len(t, res, 12)
	require.True(t, strings.HasPrefix(res[11], "12\t2.5\t"), res[11])

	out, err = execute(t, "enumerate", smallFile, "--sequences", "--limit", "2")
	require.NoError(t, err)
	require.Equal(t, []string{
		"1\t-2\t(12:0/ALA, 13:1/GLY, 14:1)\tALA-GLY-1",
		"2\t0\t(12:0/ALA, 13:1/GLY, 14:0)\tALA-GLY-0",
	}, lines(out))
}

func TestEnumerateEnvironment(t *testing.T) {
	t.Setenv("SPARSENUM_ENUMERATE_LIMIT", "5")
	out, err := execute(t, "enumerate", smallFile)
	require.NoError(t, err)
	require.Len(t, lines(out), 5)

	// Flags override the environment.
	out, err = execute(t, "enumerate", smallFile, "--limit", "1")
	require.NoError(t, err)
	require.Len(t, lines(out), 1)
}

func TestEnumerateErrors(t *testing.T) {
	_, err := execute(t, "enumerate", "testdata/missing.yaml")
	require.Error(t, err)
	_, err = execute(t, "enumerate")
	require.Error(t, err)
	_, err = execute(t, "enumerate", smallFile, "--log-format", "xml")
	require.ErrorContains(t, err, "log.format")
}

func TestTreeCommand(t *testing.T) {
	out, err := execute(t, "tree", smallFile)
	require.NoError(t, err)
	require.Equal(t, "[12] - L Set:[12 13 14] - M Set:[]\n+L--[13 14] - L Set:[12 13 14] - M Set:[12]\n", out)

	out, err = execute(t, "tree", smallFile, "--dot")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "strict digraph decomposition {"), out)
	require.Contains(t, out, "n0 -> n1")
}

func TestCountCommand(t *testing.T) {
	out, err := execute(t, "count", smallFile)
	require.NoError(t, err)
	res := lines(out)
	require.Equal(t, "conformations: 12", res[0])
	// root: 2 local conformations, child: 2*3*2.
	require.Equal(t, "local conformations: 14", res[1])
	require.Len(t, res, 5)
	require.Equal(t, []string{"0", "2", "1", "2"}, strings.Fields(res[3]))
	require.Equal(t, []string{"1", "12", "2", "6"}, strings.Fields(res[4]))
}

const uncoveredProblem = `
positions:
  - {id: 1, choices: [0, 1]}
  - {id: 2, choices: [0, 1]}
energies:
  pairs: [{a: [1, 1], b: [2, 1], e: -4}]
tree:
  lambda: [1]
  children: [{lambda: [2]}]
`

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "check", smallFile)
	require.NoError(t, err)
	require.Equal(t, []string{
		"running intersection: ok",
		"uncovered terms: 0",
		"brute force: ok (12 conformations)",
	}, lines(out))

	out, err = execute(t, "check", smallFile, "--max-brute", "10")
	require.NoError(t, err)
	require.Contains(t, out, "brute force: skipped (12 conformations)")

	path := filepath.Join(t.TempDir(), "uncovered.yaml")
	require.NoError(t, os.WriteFile(path, []byte(uncoveredProblem), 0o600))
	out, err = execute(t, "check", path)
	require.ErrorIs(t, err, errCheck)
	require.Contains(t, out, "uncovered terms: 1\n\t(1:1, 2:1) -4\n")
}
