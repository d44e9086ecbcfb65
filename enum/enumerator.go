package enum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/emirpasic/gods/sets/hashset"
	"go.uber.org/zap"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
	"github.com/crillab/sparsenum/logger"
)

// ErrTooLarge is returned when a node has too many local combinations to be preprocessed.
var ErrTooLarge = errors.New("too many local combinations")

// An Enumerator returns the completions of the subtree of a node, best first.
// There is one Enumerator per node of the tree; children are owned by their parent.
// An Enumerator is not safe for concurrent use.
type Enumerator struct {
	node        *decomp.Node
	oracle      energy.Oracle
	opts        *options
	seq         bool // Only keep the best completion of each sequence.
	log         logger.Logger
	left, right *Enumerator
	templates   []*TemplateHeap                // By boundary index.
	queries     []map[confspace.Key]*QueryHeap // By boundary index, then caller context.
	caches      []*completionCache             // By boundary index; read by the parent's candidates.
	expected    int64                          // Number of local combinations.
	processed   int64                          // Number of local combinations received so far.
	built       bool                           // Whether the whole subtree was preprocessed.
	fault       *Fault                         // Set once aborted.
}

// New returns an enumerator for the tree rooted at root.
// The enumerator registers processors on every node: it must be preprocessed,
// with Preprocess or by preprocessing root, before it is queried.
func New(root *decomp.Node, oracle energy.Oracle, opts ...Option) (*Enumerator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newEnumerator(root, oracle, &o, false)
}

func newEnumerator(n *decomp.Node, oracle energy.Oracle, opts *options, seq bool) (*Enumerator, error) {
	total := n.TotalLocalConformations()
	if !total.IsInt64() {
		return nil, fmt.Errorf("node %d: %s: %w", n.ID(), total, ErrTooLarge)
	}
	e := &Enumerator{
		node:      n,
		oracle:    oracle,
		opts:      opts,
		seq:       seq,
		log:       opts.logger.With(zap.Int("node", n.ID())),
		templates: make([]*TemplateHeap, n.NbBoundaries()),
		queries:   make([]map[confspace.Key]*QueryHeap, n.NbBoundaries()),
		caches:    make([]*completionCache, n.NbBoundaries()),
		expected:  total.Int64(),
	}
	var err error
	if n.Left() != nil {
		if e.left, err = newEnumerator(n.Left(), oracle, opts, seq); err != nil {
			return nil, err
		}
	}
	if n.Right() != nil {
		if e.right, err = newEnumerator(n.Right(), oracle, opts, seq); err != nil {
			return nil, err
		}
	}
	n.AddProcessor(decomp.ProcessorFunc(e.addLocal))
	return e, nil
}

// addLocal builds the candidate of a local combination and adds it to the template of its boundary.
// Combinations for which a child has no completion are dropped.
func (e *Enumerator) addLocal(local confspace.Assignment) {
	if e.processed == e.expected {
		return // Already built by a previous preprocessing.
	}
	e.processed++
	e.opts.metrics.LocalConf(e.node.ID())
	m := e.node.ExtractM(local)
	lambda := e.node.ExtractLambda(local)
	c := &Candidate{Lambda: lambda, Local: local, Self: e.oracle.ScoreDelta(m, lambda)}
	var l, r float64
	var ok bool
	if e.left != nil {
		if l, ok = e.left.templateBest(local); !ok {
			return
		}
	}
	if e.right != nil {
		if r, ok = e.right.templateBest(local); !ok {
			return
		}
	}
	c.update(l, r)
	idx := e.node.IndexOf(m)
	if e.templates[idx] == nil {
		e.templates[idx] = newTemplateHeap()
	}
	e.templates[idx].add(e.node.ID(), c)
}

// templateBest returns the score of the best completion of the subtree, for the boundary
// found in the local assignment of the parent.
func (e *Enumerator) templateBest(parentLocal confspace.Assignment) (float64, bool) {
	return e.templates[e.node.IndexOf(e.node.ExtractM(parentLocal))].Best()
}

// ready is true iff every node of the subtree received all its local combinations.
func (e *Enumerator) ready() bool {
	if !e.built {
		e.built = e.processed == e.expected &&
			(e.left == nil || e.left.ready()) &&
			(e.right == nil || e.right.ready())
	}
	return e.built
}

// Preprocess builds the template heaps of the whole tree.
// If parallel is true, sibling subtrees are preprocessed concurrently.
// Preprocessing an enumerator twice has no effect.
func (e *Enumerator) Preprocess(ctx context.Context, parallel bool) (err error) {
	if e.fault != nil {
		return e.fault
	}
	if e.ready() {
		return nil
	}
	start := time.Now()
	if parallel {
		err = e.node.PreprocessParallel(ctx)
	} else if err = ctx.Err(); err == nil {
		err = e.catch(e.node.Preprocess)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		var f *Fault
		if !errors.As(err, &f) {
			f = &Fault{Node: e.node.ID(), Err: err}
		}
		e.abort(f)
		return f
	}
	if !e.ready() {
		return ErrNotReady
	}
	e.opts.metrics.ObservePreprocess(start)
	e.log.Info("templates built",
		zap.Int("candidates", e.NbCandidates()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// NbCandidates returns the number of candidates held by the templates of the subtree.
func (e *Enumerator) NbCandidates() int {
	res := 0
	for _, t := range e.templates {
		res += t.Len()
	}
	if e.left != nil {
		res += e.left.NbCandidates()
	}
	if e.right != nil {
		res += e.right.NbCandidates()
	}
	return res
}

func (e *Enumerator) abort(f *Fault) {
	e.fault = f
	e.log.Error("enumeration aborted", zap.Error(f), zap.Int("fault_node", f.Node))
}

// catch runs fn, converting faults into errors.
func (e *Enumerator) catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asFault(r, e.node.ID(), nil)
		}
	}()
	fn()
	return nil
}

// recover must be deferred by every public method that can meet a fault.
func (e *Enumerator) recover(context confspace.Assignment, err *error) {
	if r := recover(); r != nil {
		f := asFault(r, e.node.ID(), context)
		e.abort(f)
		*err = f
	}
}

// checkContext verifies that context assigns every boundary position, and nothing below.
func (e *Enumerator) checkContext(context confspace.Assignment) confspace.Assignment {
	boundary := e.node.ExtractM(context)
	if len(e.node.ExtractL(context)) != len(boundary) {
		raise(e.node.ID(), context, fmt.Errorf("%w: context assigns positions of the subtree", decomp.ErrScope))
	}
	return boundary
}

// lookup returns the query heap of context, or nil.
func (e *Enumerator) lookup(context confspace.Assignment) *QueryHeap {
	idx := e.node.IndexOf(e.checkContext(context))
	return e.queries[idx][context.Key()]
}

// query returns the query heap of context, cloning it from its template if needed.
func (e *Enumerator) query(context confspace.Assignment) *QueryHeap {
	boundary := e.checkContext(context)
	idx := e.node.IndexOf(boundary)
	key := context.Key()
	if q, ok := e.queries[idx][key]; ok {
		return q
	}
	q := e.newQuery(context, boundary, idx)
	if e.queries[idx] == nil {
		e.queries[idx] = make(map[confspace.Key]*QueryHeap)
	}
	e.queries[idx][key] = q
	return q
}

func (e *Enumerator) newQuery(context, boundary confspace.Assignment, idx int) *QueryHeap {
	q := &QueryHeap{context: context, boundary: boundary, q: e.templates[idx].clone(), state: Seeded}
	if e.seq {
		q.seen = hashset.New()
	}
	e.opts.metrics.QueryHeap(e.node.ID())
	e.log.Debug("query heap created",
		zap.Stringer("boundary", boundary),
		zap.Uint64("context", context.Key().Hash64()),
		zap.Int("candidates", q.q.len()))
	return q
}

// cache returns the memoized completions of the subtree for the boundary found in the
// local assignment of the parent.
func (e *Enumerator) cache(parentLocal confspace.Assignment) *completionCache {
	boundary := e.node.ExtractM(parentLocal)
	idx := e.node.IndexOf(boundary)
	if e.caches[idx] == nil {
		c := &completionCache{e: e, query: e.newQuery(boundary, boundary, idx)}
		if e.opts.checks {
			c.keys = hashset.New()
		}
		e.caches[idx] = c
	}
	return e.caches[idx]
}

// hasMore is true iff q has at least one more completion to return.
func (e *Enumerator) hasMore(q *QueryHeap) bool {
	var more bool
	if e.seq {
		more = e.fillSequence(q)
	} else {
		more = q.pending != nil || !q.q.empty()
	}
	if !more && q.state != Exhausted {
		q.state = Exhausted
		e.log.Debug("query heap exhausted", zap.Stringer("boundary", q.boundary))
	}
	return more
}

// fillSequence pops completions until one with a new sequence is found.
func (e *Enumerator) fillSequence(q *QueryHeap) bool {
	for q.pending == nil && !q.q.empty() {
		comp := e.pop(q)
		key := comp.Assignment.SequenceKey(e.node.Space())
		if !q.seen.Contains(key) {
			q.seen.Add(key)
			q.pending = &comp
		}
	}
	return q.pending != nil
}

// next returns the next completion of q.
func (e *Enumerator) next(q *QueryHeap) Completion {
	if !e.hasMore(q) {
		raise(e.node.ID(), q.context, ErrExhausted)
	}
	var comp Completion
	if q.pending != nil {
		comp = *q.pending
		q.pending = nil
	} else {
		comp = e.pop(q)
	}
	q.state = Active
	return comp
}

// pop removes the best candidate of q and returns its next completion.
// The candidate is reinserted with its following completion, if any.
func (e *Enumerator) pop(q *QueryHeap) Completion {
	if q.q.empty() {
		raise(e.node.ID(), q.context, ErrExhausted)
	}
	c := q.q.removeMin()
	total := c.Total
	if q.popped && total < q.last {
		raise(e.node.ID(), q.context, fmt.Errorf("%w: %g after %g", ErrOrder, total, q.last))
	}
	q.popped, q.last = true, total
	e.opts.metrics.Candidate("popped")
	res := c.Lambda
	if e.left != nil {
		if c.stream == nil {
			c.stream = e.openStream(c)
		}
		child := c.stream.next()
		res = confspace.MustCombine(res, child.Assignment)
		if l, r, ok := c.stream.peek(); ok {
			c.update(l, r)
			q.q.insert(c)
			e.opts.metrics.Candidate("reinserted")
			return Completion{Assignment: res, Score: total}
		}
	}
	e.opts.metrics.Candidate("dropped")
	return Completion{Assignment: res, Score: total}
}

func (e *Enumerator) openStream(c *Candidate) childStream {
	l := e.left.cache(c.Local)
	if e.right == nil {
		return &singleStream{cache: l}
	}
	return newPairStream(l, e.right.cache(c.Local))
}

// checkScore compares the score of comp with the one of the oracle.
func (e *Enumerator) checkScore(q *QueryHeap, comp Completion) {
	want := e.oracle.ScoreDelta(q.boundary, comp.Assignment)
	if math.Abs(want-comp.Score) > e.opts.tolerance*math.Max(1, math.Abs(want)) {
		raise(e.node.ID(), q.context, fmt.Errorf("%w: got %g for %v, oracle says %g", ErrScoreMismatch, comp.Score, comp.Assignment, want))
	}
}

// nextBest is NextBest, without conversion of faults.
func (e *Enumerator) nextBest(context confspace.Assignment) (Completion, error) {
	q := e.query(context)
	if !e.hasMore(q) {
		return Completion{}, fmt.Errorf("context %v: %w", context, ErrExhausted)
	}
	comp := e.next(q)
	if e.opts.checks {
		e.checkScore(q, comp)
	}
	return Completion{Assignment: confspace.MustCombine(context, comp.Assignment), Score: comp.Score}, nil
}

func (e *Enumerator) precheck() error {
	if e.fault != nil {
		return e.fault
	}
	if !e.ready() {
		return ErrNotReady
	}
	return nil
}

// NextBest returns the best completion of context not returned yet, as the union of context
// and an assignment of the subtree positions. Its score is the energy of the terms introduced
// in the subtree. context must assign every position of M, and no other position of L.
// Successive calls with the same context return scores in non-decreasing order.
// It returns ErrExhausted when every completion was returned.
func (e *Enumerator) NextBest(context confspace.Assignment) (res Completion, err error) {
	if err := e.precheck(); err != nil {
		return Completion{}, err
	}
	start := time.Now()
	defer e.recover(context, &err)
	res, err = e.nextBest(context)
	if err == nil {
		e.opts.metrics.Result("conformation")
		e.opts.metrics.ObserveNextBest(start)
	}
	return res, err
}

// HasMore is true iff NextBest(context) would return a completion.
func (e *Enumerator) HasMore(context confspace.Assignment) (more bool, err error) {
	if err := e.precheck(); err != nil {
		return false, err
	}
	defer e.recover(context, &err)
	return e.hasMore(e.query(context)), nil
}

// Peek returns the completion NextBest(context) would return, without consuming it.
func (e *Enumerator) Peek(context confspace.Assignment) (res Completion, err error) {
	if err := e.precheck(); err != nil {
		return Completion{}, err
	}
	defer e.recover(context, &err)
	q := e.query(context)
	if !e.hasMore(q) {
		return Completion{}, fmt.Errorf("context %v: %w", context, ErrExhausted)
	}
	if q.pending == nil {
		comp := e.pop(q)
		q.pending = &comp
	}
	return Completion{Assignment: confspace.MustCombine(context, q.pending.Assignment), Score: q.pending.Score}, nil
}

// State returns the state of the query heap of context.
func (e *Enumerator) State(context confspace.Assignment) (state HeapState, err error) {
	if e.fault != nil {
		return Absent, e.fault
	}
	defer e.recover(context, &err)
	q := e.lookup(context)
	if q == nil {
		return Absent, nil
	}
	if q.state != Exhausted {
		e.hasMore(q)
	}
	return q.state, nil
}

// Node returns the node the enumerator works on.
func (e *Enumerator) Node() *decomp.Node { return e.node }
