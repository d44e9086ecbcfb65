package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/crillab/sparsenum/config"
	"github.com/crillab/sparsenum/metrics"
	"github.com/crillab/sparsenum/problem"
	"github.com/crillab/sparsenum/sparse"
)

const (
	limitFlag       = "limit"
	sequencesFlag   = "sequences"
	parallelFlag    = "parallel"
	checksFlag      = "checks"
	toleranceFlag   = "tolerance"
	metricsAddrFlag = "metrics-addr"
)

func newEnumerateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enumerate FILE",
		Short: "Print the best conformations of a problem",
		Long: `Print the best conformations of a problem, in non-decreasing order of energy.

Each line holds the rank, the energy and the conformation of a result. With --sequences,
only the best conformation of each sequence is printed, followed by the sequence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(cmd.Context(), cmd.OutOrStdout(), v, args[0])
		},
	}
	def := config.DefaultConfig()
	flags := cmd.Flags()
	flags.Int(limitFlag, def.Enumerate.Limit, "maximal number of results, 0 for all of them")
	flags.Bool(sequencesFlag, def.Enumerate.Sequences, "enumerate sequences rather than conformations")
	flags.Bool(parallelFlag, def.Enumerate.Parallel, "preprocess sibling subtrees concurrently")
	flags.Bool(checksFlag, def.Enumerate.Checks, "check the order and the scores of results")
	flags.Float64(toleranceFlag, def.Enumerate.Tolerance, "tolerance of score checks")
	flags.String(metricsAddrFlag, def.Metrics.Addr, "address Prometheus metrics are served on, e.g ':2112'")
	mustBindPFlag(v, "enumerate.limit", flags.Lookup(limitFlag))
	mustBindPFlag(v, "enumerate.sequences", flags.Lookup(sequencesFlag))
	mustBindPFlag(v, "enumerate.parallel", flags.Lookup(parallelFlag))
	mustBindPFlag(v, "enumerate.checks", flags.Lookup(checksFlag))
	mustBindPFlag(v, "enumerate.tolerance", flags.Lookup(toleranceFlag))
	mustBindPFlag(v, "metrics.addr", flags.Lookup(metricsAddrFlag))
	return cmd
}

func runEnumerate(ctx context.Context, out io.Writer, v *viper.Viper, path string) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	pb, err := problem.ParseFile(path)
	if err != nil {
		return err
	}
	opts := []sparse.Option{
		sparse.WithLogger(log),
		sparse.WithSequences(cfg.Enumerate.Sequences),
		sparse.WithParallel(cfg.Enumerate.Parallel),
		sparse.WithChecks(cfg.Enumerate.Checks),
		sparse.WithTolerance(cfg.Enumerate.Tolerance),
	}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, sparse.WithMetrics(metrics.New(reg)))
		shutdown := metrics.StartServer(cfg.Metrics.Addr, reg, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Warn("could not stop metrics server", zap.Error(err))
			}
		}()
	}
	s, err := sparse.New(ctx, pb, opts...)
	if err != nil {
		return err
	}
	nb, err := stream(ctx, s, cfg.Enumerate.Limit, func(sol sparse.Solution) error {
		return printSolution(out, s, sol)
	})
	if err != nil {
		return err
	}
	log.Info("enumeration done", zap.Int("results", nb))
	return nil
}

// stream calls fn on the solutions of s, until limit solutions were found (if limit > 0),
// s is exhausted, fn fails or ctx is done.
func stream(ctx context.Context, s *sparse.Search, limit int, fn func(sparse.Solution) error) (int, error) {
	models := make(chan sparse.Solution)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Enumerate(models, stop)
	}()
	var err error
	stopped := false
	halt := func() {
		if !stopped {
			stopped = true
			close(stop)
		}
	}
	nb := 0
	ctxDone := ctx.Done()
loop:
	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			err = ctx.Err()
			halt()
		case sol, ok := <-models:
			if !ok {
				break loop
			}
			if stopped {
				continue
			}
			if err = fn(sol); err != nil {
				halt()
				continue
			}
			nb++
			if limit > 0 && nb == limit {
				halt()
			}
		}
	}
	<-done
	if err != nil {
		return nb, err
	}
	return nb, s.Err()
}

func printSolution(out io.Writer, s *sparse.Search, sol sparse.Solution) error {
	var err error
	if sol.Sequence != nil {
		_, err = fmt.Fprintf(out, "%d\t%g\t%s\t%s\n", sol.Rank, sol.Score, s.Format(sol), sol.Sequence)
	} else {
		_, err = fmt.Fprintf(out, "%d\t%g\t%s\n", sol.Rank, sol.Score, s.Format(sol))
	}
	return err
}
