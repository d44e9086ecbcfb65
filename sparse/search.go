// Package sparse runs enumeration sessions over problem files.
//
// A Search builds the decomposition of a problem, preprocesses it and then returns
// the conformations (or sequences) of the problem in non-decreasing order of score:
//
//	pb, err := problem.ParseFile("design.yaml")
//	if err != nil {
//		return err
//	}
//	s, err := sparse.New(ctx, pb, sparse.WithParallel(true))
//	if err != nil {
//		return err
//	}
//	best, err := s.Best(10)
package sparse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
	"github.com/crillab/sparsenum/enum"
	"github.com/crillab/sparsenum/logger"
	"github.com/crillab/sparsenum/metrics"
	"github.com/crillab/sparsenum/problem"
)

// ErrUncovered is returned when some energy terms are not covered by the decomposition
// and score checks are enabled.
var ErrUncovered = errors.New("energy terms not covered by the decomposition")

// A Solution is a full conformation of a problem, with its score and rank.
type Solution struct {
	Rank       int // Starts at 1.
	Assignment confspace.Assignment
	Score      float64
	// Sequence is only set when enumerating sequences. Assignment then is
	// the best conformation of the sequence.
	Sequence confspace.Sequence
}

type settings struct {
	log       logger.Logger
	metrics   *metrics.Metrics
	sequences bool
	parallel  bool
	checks    bool
	tolerance float64
}

// An Option configures a Search.
type Option func(*settings)

// WithLogger sets the logger of the search.
func WithLogger(l logger.Logger) Option { return func(s *settings) { s.log = l } }

// WithMetrics sets the collectors updated by the search.
func WithMetrics(m *metrics.Metrics) Option { return func(s *settings) { s.metrics = m } }

// WithSequences makes the search return the best conformation of each sequence.
func WithSequences(seq bool) Option { return func(s *settings) { s.sequences = seq } }

// WithParallel preprocesses sibling subtrees concurrently.
func WithParallel(parallel bool) Option { return func(s *settings) { s.parallel = parallel } }

// WithChecks enables or disables the runtime checks of the enumeration.
// Checks are enabled by default.
func WithChecks(checks bool) Option { return func(s *settings) { s.checks = checks } }

// WithTolerance sets the tolerance of score checks.
func WithTolerance(tol float64) Option { return func(s *settings) { s.tolerance = tol } }

// A Search is an enumeration session over a problem.
// Its methods can be called from several goroutines.
type Search struct {
	ID   string // Unique identifier of the session, used in logs.
	pb   *problem.Problem
	root *decomp.Node
	log  logger.Logger

	mu    sync.Mutex
	confs *enum.Enumerator    // Nil when enumerating sequences.
	seqs  *enum.SeqEnumerator // Nil when enumerating conformations.
	rank    int
	pending *Solution // Found by Enumerate but not delivered.
	err     error
}

// New builds and preprocesses a search over pb.
// ctx is only used during preprocessing.
func New(ctx context.Context, pb *problem.Problem, opts ...Option) (*Search, error) {
	set := settings{
		log:       logger.NewNoopLogger(),
		checks:    true,
		tolerance: enum.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&set)
	}
	root, err := pb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build decomposition: %w", err)
	}
	s := &Search{
		ID:   ulid.Make().String(),
		pb:   pb,
		root: root,
	}
	s.log = set.log.With(zap.String("session", s.ID))
	if set.checks {
		if err := decomp.CheckRunningIntersection(root); err != nil {
			return nil, err
		}
	}
	if uncovered := energy.Uncovered(root, pb.Matrix.Terms()); len(uncovered) > 0 {
		s.log.Warn("energy terms not covered by the decomposition", zap.Int("count", len(uncovered)))
		if set.checks {
			return nil, fmt.Errorf("%w: %d terms, first one is %s", ErrUncovered, len(uncovered), pb.Format(uncovered[0].Tuple))
		}
	}
	enumOpts := []enum.Option{
		enum.WithLogger(s.log),
		enum.WithMetrics(set.metrics),
		enum.WithChecks(set.checks),
		enum.WithTolerance(set.tolerance),
	}
	if set.sequences {
		if s.seqs, err = enum.NewSeq(root, pb.Matrix, enumOpts...); err != nil {
			return nil, err
		}
		err = s.seqs.Preprocess(ctx, set.parallel)
	} else {
		if s.confs, err = enum.New(root, pb.Matrix, enumOpts...); err != nil {
			return nil, err
		}
		err = s.confs.Preprocess(ctx, set.parallel)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("search ready",
		zap.Int("positions", pb.Space.NbPositions()),
		zap.String("conformations", root.TotalConformations().String()),
		zap.Int("candidates", s.NbCandidates()),
		zap.Bool("sequences", set.sequences))
	return s, nil
}

// Root returns the root of the decomposition of the search.
func (s *Search) Root() *decomp.Node { return s.root }

// Format returns a printable version of the assignment of sol.
func (s *Search) Format(sol Solution) string { return s.pb.Format(sol.Assignment) }

// NbCandidates returns the number of candidates built during preprocessing.
func (s *Search) NbCandidates() int {
	if s.seqs != nil {
		return s.seqs.NbCandidates()
	}
	return s.confs.NbCandidates()
}

// HasMore indicates whether Next can return another solution.
func (s *Search) HasMore() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return true, nil
	}
	if s.seqs != nil {
		return s.seqs.HasMore(confspace.Empty)
	}
	return s.confs.HasMore(confspace.Empty)
}

// Next returns the best solution not returned yet.
// It returns an error wrapping enum.ErrExhausted once all solutions were returned.
func (s *Search) Next() (Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next()
}

func (s *Search) next() (Solution, error) {
	if s.pending != nil {
		sol := *s.pending
		s.pending = nil
		return sol, nil
	}
	var sol Solution
	if s.seqs != nil {
		res, err := s.seqs.NextBest(confspace.Empty)
		if err != nil {
			return Solution{}, err
		}
		sol = Solution{Assignment: res.Best.Assignment, Score: res.Best.Score, Sequence: res.Sequence}
	} else {
		res, err := s.confs.NextBest(confspace.Empty)
		if err != nil {
			return Solution{}, err
		}
		sol = Solution{Assignment: res.Assignment, Score: res.Score}
	}
	s.rank++
	sol.Rank = s.rank
	s.log.Debug("solution found", zap.Int("rank", sol.Rank), zap.Float64("score", sol.Score))
	return sol, nil
}

// Best returns the k best solutions not returned yet.
// Fewer than k solutions are returned when the search gets exhausted.
func (s *Search) Best(k int) ([]Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Solution
	for len(res) < k {
		sol, err := s.next()
		if exhausted(err) {
			break
		}
		if err != nil {
			return res, err
		}
		res = append(res, sol)
	}
	return res, nil
}

// Enumerate returns the number of solutions not returned yet.
// If models is non-nil, it writes solutions on it as soon as it finds them.
// If data is sent to stop, or stop is closed, the method stops prematurely, and returns
// the number of solutions written so far. A solution found but not written is kept for the
// next call to Next, Best or Enumerate.
// In any case, models is closed before the method returns.
// If enumeration failed, Err returns the cause.
func (s *Search) Enumerate(models chan Solution, stop chan struct{}) int {
	if models != nil {
		defer close(models)
	}
	nb := 0
	for {
		select {
		case <-stop:
			return nb
		default:
		}
		sol, err := s.Next()
		if err != nil {
			if !exhausted(err) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return nb
		}
		nb++
		if models != nil {
			select {
			case models <- sol:
			case <-stop:
				s.mu.Lock()
				s.pending = &sol
				s.mu.Unlock()
				return nb - 1
			}
		}
	}
}

// exhausted is true iff err reports the end of the enumeration, rather than a fault.
func exhausted(err error) bool {
	var f *enum.Fault
	return !errors.As(err, &f) && errors.Is(err, enum.ErrExhausted)
}

// Err returns the error that stopped the last call to Enumerate, if any.
func (s *Search) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
