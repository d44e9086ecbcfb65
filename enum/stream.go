package enum

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/crillab/sparsenum/confspace"
)

// A Completion is an assignment of the positions of a subtree below its boundary, with its score.
type Completion struct {
	Assignment confspace.Assignment
	Score      float64
}

// A completionCache memoizes, in order, the completions of a subtree for a given boundary.
// It is shared by every candidate of the parent projecting onto that boundary, each of them
// reading it with its own cursor. It grows one completion at a time, when a reader needs it.
type completionCache struct {
	e     *Enumerator // Enumerator of the subtree.
	query *QueryHeap  // Private query heap feeding the cache.
	items []Completion
	keys  *hashset.Set // Keys of items, when checks are enabled.
}

// has is true iff the i-th completion exists. It pulls completions from the subtree as needed.
func (c *completionCache) has(i int) bool {
	for len(c.items) <= i {
		if !c.e.hasMore(c.query) {
			return false
		}
		comp := c.e.next(c.query)
		if c.keys != nil {
			key := comp.Assignment.Key()
			if c.keys.Contains(key) {
				raise(c.e.node.ID(), c.query.boundary, ErrDuplicate)
			}
			c.keys.Add(key)
		}
		c.items = append(c.items, comp)
		c.e.opts.metrics.CacheEntry(c.e.node.ID())
	}
	return true
}

// get returns the i-th completion. has(i) must be true.
func (c *completionCache) get(i int) Completion { return c.items[i] }

// A childStream yields the completions of the children of a node, for a given local assignment, best first.
type childStream interface {
	// next returns the next completion. The stream must not be exhausted.
	next() Completion
	// peek returns the cost of the next completion of each child.
	peek() (left, right float64, ok bool)
}

// singleStream reads the completions of a single child.
type singleStream struct {
	cache *completionCache
	i     int
}

func (s *singleStream) next() Completion {
	s.cache.has(s.i)
	comp := s.cache.get(s.i)
	s.i++
	return comp
}

func (s *singleStream) peek() (float64, float64, bool) {
	if !s.cache.has(s.i) {
		return 0, 0, false
	}
	return s.cache.get(s.i).Score, 0, true
}

// A pairEntry is the combination of the i-th left completion with the j-th right completion.
type pairEntry struct {
	i, j        int
	left, right float64
	cost        float64 // left + right
}

func lessPair(x, y pairEntry) bool {
	if x.cost != y.cost {
		return x.cost < y.cost
	}
	if x.i != y.i {
		return x.i < y.i
	}
	return x.j < y.j
}

// pairStream merges the completions of two children, best pair first.
// Each pair (i, j) is pushed exactly once: (i, j+1) after (i, j) was popped, and (i+1, 0) after (i, 0).
type pairStream struct {
	left, right *completionCache
	q           queue[pairEntry]
}

func newPairStream(left, right *completionCache) *pairStream {
	s := &pairStream{left: left, right: right, q: newQueue(lessPair)}
	if left.has(0) && right.has(0) {
		s.push(0, 0)
	}
	return s
}

func (s *pairStream) push(i, j int) {
	l, r := s.left.get(i).Score, s.right.get(j).Score
	s.q.insert(pairEntry{i: i, j: j, left: l, right: r, cost: l + r})
}

func (s *pairStream) next() Completion {
	p := s.q.removeMin()
	if s.right.has(p.j + 1) {
		s.push(p.i, p.j+1)
	}
	if p.j == 0 && s.left.has(p.i+1) {
		s.push(p.i+1, 0)
	}
	l, r := s.left.get(p.i), s.right.get(p.j)
	return Completion{Assignment: confspace.MustCombine(l.Assignment, r.Assignment), Score: p.cost}
}

func (s *pairStream) peek() (float64, float64, bool) {
	if s.q.empty() {
		return 0, 0, false
	}
	p := s.q.min()
	return p.left, p.right, true
}
