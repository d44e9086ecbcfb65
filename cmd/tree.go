package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crillab/sparsenum/problem"
)

const dotFlag = "dot"

func newTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the decomposition tree of a problem",
		Long:  "Print the decomposition tree of a problem, either as text or in the DOT format.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTree,
	}
	cmd.Flags().Bool(dotFlag, false, "print the tree in the DOT format")
	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	dot, err := cmd.Flags().GetBool(dotFlag)
	if err != nil {
		return err
	}
	pb, err := problem.ParseFile(args[0])
	if err != nil {
		return err
	}
	root, err := pb.Build()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !dot {
		_, err = fmt.Fprint(out, root.String())
		return err
	}
	b, err := root.DOT()
	if err != nil {
		return fmt.Errorf("could not render tree: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
