package enum

import (
	"fmt"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/crillab/sparsenum/confspace"
)

// A Candidate is a local assignment of a node, waiting in a heap with the cost of the
// best completion of its subtrees not yet returned.
type Candidate struct {
	Lambda confspace.Assignment // Assignment of the positions introduced at the node.
	Local  confspace.Assignment // Assignment of M ∪ Lambda.
	Self   float64              // Energy of the terms introduced by Lambda, given M.
	Left   float64              // Cost of the next completion of the left subtree.
	Right  float64              // Cost of the next completion of the right subtree.
	Total  float64              // Self + (Left + Right).
	stream childStream          // Opened on first pop.
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%v %g (self %g, left %g, right %g)", c.Lambda, c.Total, c.Self, c.Left, c.Right)
}

func (c *Candidate) update(left, right float64) {
	c.Left, c.Right = left, right
	c.Total = c.Self + (c.Left + c.Right)
}

func lessCandidate(x, y *Candidate) bool {
	if x.Total != y.Total {
		return x.Total < y.Total
	}
	return confspace.Compare(x.Lambda, y.Lambda) < 0
}

// A TemplateHeap holds one candidate per local assignment sharing the same boundary.
// It is built during preprocessing, then sealed when first cloned.
type TemplateHeap struct {
	pending []*Candidate
	best    *Candidate
	q       queue[*Candidate]
	sealed  bool
}

func newTemplateHeap() *TemplateHeap {
	return &TemplateHeap{q: newQueue(lessCandidate)}
}

// add registers a candidate. It panics if the template is sealed.
func (t *TemplateHeap) add(node int, c *Candidate) {
	if t.sealed {
		raise(node, c.Local, ErrSealed)
	}
	t.pending = append(t.pending, c)
	if t.best == nil || lessCandidate(c, t.best) {
		t.best = c
	}
}

// Best returns the total of the best candidate.
func (t *TemplateHeap) Best() (float64, bool) {
	if t == nil || t.best == nil {
		return 0, false
	}
	return t.best.Total, true
}

// Len returns the number of candidates of the template.
func (t *TemplateHeap) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pending)
}

// clone seals the template and returns a copy of its heap.
func (t *TemplateHeap) clone() queue[*Candidate] {
	if t == nil {
		return newQueue(lessCandidate)
	}
	if !t.sealed {
		t.q.build(t.pending)
		t.sealed = true
	}
	return t.q.clone(func(c *Candidate) *Candidate {
		dup := *c
		return &dup
	})
}

// HeapState is the state of a query heap.
type HeapState byte

const (
	// Absent means no query heap exists yet for a context.
	Absent HeapState = iota
	// Seeded means the heap was cloned from its template, but nothing was returned yet.
	Seeded
	// Active means at least one result was returned and more are available.
	Active
	// Exhausted is terminal: every result was returned.
	Exhausted
)

func (s HeapState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Seeded:
		return "seeded"
	case Active:
		return "active"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("HeapState(%d)", byte(s))
	}
}

// A QueryHeap yields the completions of a node's subtree for a given context, best first.
type QueryHeap struct {
	context  confspace.Assignment // Caller context.
	boundary confspace.Assignment // Projection of context on M.
	q        queue[*Candidate]
	state    HeapState
	popped   bool
	last     float64 // Score of the last popped candidate.
	// Only used when enumerating sequences.
	seen    *hashset.Set // Sequence keys already returned.
	pending *Completion  // Next completion, if already popped by Peek or a sequence lookahead.
}

// State returns the state of the heap.
func (q *QueryHeap) State() HeapState { return q.state }

// Len returns the number of candidates left in the heap.
func (q *QueryHeap) Len() int { return q.q.len() }
