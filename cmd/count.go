package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/problem"
)

func newCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Print the cardinalities of a problem",
		Long: `Print the number of conformations of a problem, and for each node of its decomposition
the number of local conformations and of boundary conformations.`,
		Args: cobra.ExactArgs(1),
		RunE: runCount,
	}
}

func runCount(cmd *cobra.Command, args []string) error {
	pb, err := problem.ParseFile(args[0])
	if err != nil {
		return err
	}
	root, err := pb.Build()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "conformations: %s\n", root.TotalConformations())
	fmt.Fprintf(out, "local conformations: %s\n", root.SubtreeLocalConformations())
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "node\tlocal\tboundary\tlambda")
	root.Walk(func(n *decomp.Node) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID(), n.TotalLocalConformations(), n.TotalMConformations(), n.TotalLambdaConformations())
	})
	return w.Flush()
}
