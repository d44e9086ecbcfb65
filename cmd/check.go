package cmd

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crillab/sparsenum/brute"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
	"github.com/crillab/sparsenum/problem"
	"github.com/crillab/sparsenum/sparse"
)

const maxBruteFlag = "max-brute"

// errCheck is returned when a problem fails a check.
var errCheck = errors.New("check failed")

func newCheckCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Check a problem and its decomposition",
		Long: `Check the decomposition of a problem satisfies the running intersection property,
and covers all its energy terms. Small problems are also enumerated both by the
decomposition and by brute force, and the results are compared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxBrute, err := cmd.Flags().GetInt64(maxBruteFlag)
			if err != nil {
				return err
			}
			return runCheck(cmd, v, args[0], maxBrute)
		},
	}
	cmd.Flags().Int64(maxBruteFlag, 100000, "maximal number of conformations compared with brute force")
	return cmd
}

func runCheck(cmd *cobra.Command, v *viper.Viper, path string, maxBrute int64) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	pb, err := problem.ParseFile(path)
	if err != nil {
		return err
	}
	root, err := pb.Build()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	failed := false
	if err := decomp.CheckRunningIntersection(root); err != nil {
		fmt.Fprintf(out, "running intersection: %v\n", err)
		failed = true
	} else {
		fmt.Fprintln(out, "running intersection: ok")
	}
	uncovered := energy.Uncovered(root, pb.Matrix.Terms())
	fmt.Fprintf(out, "uncovered terms: %d\n", len(uncovered))
	for _, t := range uncovered {
		fmt.Fprintf(out, "\t%s %g\n", pb.Format(t.Tuple), t.Energy)
	}
	if failed || len(uncovered) > 0 {
		return errCheck
	}
	if size := root.TotalConformations(); size.Cmp(big.NewInt(maxBrute)) > 0 {
		fmt.Fprintf(out, "brute force: skipped (%s conformations)\n", size)
		return nil
	}
	s, err := sparse.New(cmd.Context(), pb,
		sparse.WithLogger(log),
		sparse.WithTolerance(cfg.Enumerate.Tolerance))
	if err != nil {
		return err
	}
	got, err := s.Best(math.MaxInt)
	if err != nil {
		return err
	}
	want := brute.Enumerate(pb.Space, root.L(), pb.Matrix)
	if len(got) != len(want) {
		fmt.Fprintf(out, "brute force: %d conformations enumerated, want %d\n", len(got), len(want))
		return errCheck
	}
	tol := cfg.Enumerate.Tolerance
	for i := range got {
		if math.Abs(got[i].Score-want[i].Score) > tol*math.Max(1, math.Abs(want[i].Score)) {
			fmt.Fprintf(out, "brute force: result #%d has score %g, want %g\n", i+1, got[i].Score, want[i].Score)
			return errCheck
		}
	}
	fmt.Fprintf(out, "brute force: ok (%d conformations)\n", len(got))
	return nil
}
