package enum

import (
	"context"
	"time"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
)

// A SeqResult is a sequence, with its best conformation.
type SeqResult struct {
	Sequence confspace.Sequence
	Best     Completion
}

// A SeqEnumerator returns the sequences of the subtree of a node, in non-decreasing
// order of the score of their best conformation. Each sequence is returned once.
//
// It works as an Enumerator, except that every stream only keeps the first, hence best,
// completion of each sequence.
type SeqEnumerator struct {
	e *Enumerator
}

// NewSeq returns a sequence enumerator for the tree rooted at root.
func NewSeq(root *decomp.Node, oracle energy.Oracle, opts ...Option) (*SeqEnumerator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e, err := newEnumerator(root, oracle, &o, true)
	if err != nil {
		return nil, err
	}
	return &SeqEnumerator{e: e}, nil
}

// Preprocess builds the template heaps of the whole tree.
func (s *SeqEnumerator) Preprocess(ctx context.Context, parallel bool) error {
	return s.e.Preprocess(ctx, parallel)
}

// NextBest returns the best sequence not returned yet, given context.
// The sequence covers the positions of context too.
func (s *SeqEnumerator) NextBest(context confspace.Assignment) (res SeqResult, err error) {
	e := s.e
	if err := e.precheck(); err != nil {
		return SeqResult{}, err
	}
	start := time.Now()
	defer e.recover(context, &err)
	best, err := e.nextBest(context)
	if err != nil {
		return SeqResult{}, err
	}
	e.opts.metrics.Result("sequence")
	e.opts.metrics.ObserveNextBest(start)
	return SeqResult{Sequence: best.Assignment.Sequence(e.node.Space()), Best: best}, nil
}

// HasMore is true iff NextBest(context) would return a sequence.
func (s *SeqEnumerator) HasMore(context confspace.Assignment) (bool, error) {
	return s.e.HasMore(context)
}

// Peek returns the sequence NextBest(context) would return, without consuming it.
func (s *SeqEnumerator) Peek(context confspace.Assignment) (SeqResult, error) {
	best, err := s.e.Peek(context)
	if err != nil {
		return SeqResult{}, err
	}
	return SeqResult{Sequence: best.Assignment.Sequence(s.e.node.Space()), Best: best}, nil
}

// State returns the state of the query heap of context.
func (s *SeqEnumerator) State(context confspace.Assignment) (HeapState, error) {
	return s.e.State(context)
}

// NbCandidates returns the number of candidates held by the templates of the tree.
func (s *SeqEnumerator) NbCandidates() int { return s.e.NbCandidates() }
