package energy

import (
	"errors"
	"fmt"

	"github.com/crillab/sparsenum/confspace"
)

// ErrTerm is returned when an energy term is malformed.
var ErrTerm = errors.New("invalid energy term")

// A Term is an energy contribution that applies whenever all the pairs of Tuple are assigned.
type Term struct {
	Tuple  confspace.Assignment
	Energy float64
}

type pairKey struct {
	a, b confspace.Pair // a.Pos < b.Pos
}

func makePairKey(a, b confspace.Pair) pairKey {
	if a.Pos > b.Pos {
		a, b = b, a
	}
	return pairKey{a, b}
}

// A Matrix is an Oracle whose energy decomposes additively over
// one-body, pairwise and higher-order terms.
// It must not be modified once enumeration has started; it is then safe for concurrent use.
type Matrix struct {
	one    map[confspace.Pair]float64
	pairs  map[pairKey]float64
	higher []Term                       // Terms involving at least 3 positions.
	byPos  map[confspace.Position][]int // For each position, indices of the higher terms it appears in.
	keys   map[confspace.Key]int        // Index of each higher term, by tuple.
}

// NewMatrix returns an empty energy matrix: every assignment scores 0.
func NewMatrix() *Matrix {
	return &Matrix{
		one:   make(map[confspace.Pair]float64),
		pairs: make(map[pairKey]float64),
		byPos: make(map[confspace.Position][]int),
		keys:  make(map[confspace.Key]int),
	}
}

// AddOne adds e to the self energy of p.
func (m *Matrix) AddOne(p confspace.Pair, e float64) {
	m.one[p] += e
}

// AddPair adds e to the interaction energy between a and b.
func (m *Matrix) AddPair(a, b confspace.Pair, e float64) error {
	if a.Pos == b.Pos {
		return fmt.Errorf("pair %v/%v: %w: both choices at the same position", a, b, ErrTerm)
	}
	m.pairs[makePairKey(a, b)] += e
	return nil
}

// AddTerm adds e to the energy of an arbitrary tuple.
// Tuples of size 1 and 2 are stored as one-body and pairwise terms.
func (m *Matrix) AddTerm(tuple confspace.Assignment, e float64) error {
	switch len(tuple) {
	case 0:
		return fmt.Errorf("%w: empty tuple", ErrTerm)
	case 1:
		m.AddOne(tuple[0], e)
		return nil
	case 2:
		return m.AddPair(tuple[0], tuple[1], e)
	}
	key := tuple.Key()
	if i, ok := m.keys[key]; ok {
		m.higher[i].Energy += e
		return nil
	}
	i := len(m.higher)
	m.higher = append(m.higher, Term{Tuple: tuple, Energy: e})
	m.keys[key] = i
	for _, p := range tuple {
		m.byPos[p.Pos] = append(m.byPos[p.Pos], i)
	}
	return nil
}

// Score returns the sum of all the terms fully contained in a.
func (m *Matrix) Score(a confspace.Assignment) float64 {
	var res float64
	for i, p := range a {
		res += m.one[p]
		for j := 0; j < i; j++ {
			res += m.pairs[pairKey{a[j], p}]
		}
	}
	if len(m.higher) == 0 {
		return res
	}
	for _, t := range m.higher {
		if contains(a, t.Tuple) {
			res += t.Energy
		}
	}
	return res
}

// ScoreDelta returns the sum of all the terms contained in prior ∪ addition
// that involve at least one pair of addition.
// Terms are summed directly: the result is not computed as a difference.
// prior and addition must not share positions.
func (m *Matrix) ScoreDelta(prior, addition confspace.Assignment) float64 {
	var res float64
	for i, p := range addition {
		res += m.one[p]
		for j := 0; j < i; j++ {
			res += m.pairs[pairKey{addition[j], p}]
		}
		for _, q := range prior {
			res += m.pairs[makePairKey(p, q)]
		}
	}
	if len(m.higher) == 0 {
		return res
	}
	touched := make([]bool, len(m.higher))
	for _, p := range addition {
		for _, i := range m.byPos[p.Pos] {
			touched[i] = true
		}
	}
	for i, t := range m.higher { // Insertion order keeps sums reproducible.
		if touched[i] && containsUnion(prior, addition, t.Tuple) {
			res += t.Energy
		}
	}
	return res
}

// Terms returns every non-zero term of the matrix: one-body terms first, then pairs, then higher-order terms.
// Order within each group is unspecified.
func (m *Matrix) Terms() []Term {
	res := make([]Term, 0, len(m.one)+len(m.pairs)+len(m.higher))
	for p, e := range m.one {
		if e != 0 {
			res = append(res, Term{Tuple: confspace.Assignment{p}, Energy: e})
		}
	}
	for k, e := range m.pairs {
		if e != 0 {
			res = append(res, Term{Tuple: confspace.Assignment{k.a, k.b}, Energy: e})
		}
	}
	for _, t := range m.higher {
		if t.Energy != 0 {
			res = append(res, t)
		}
	}
	return res
}

// contains is true iff every pair of tuple is in a.
func contains(a, tuple confspace.Assignment) bool {
	for _, p := range tuple {
		if c, ok := a.Lookup(p.Pos); !ok || c != p.Choice {
			return false
		}
	}
	return true
}

func containsUnion(a, b, tuple confspace.Assignment) bool {
	for _, p := range tuple {
		c, ok := a.Lookup(p.Pos)
		if !ok {
			c, ok = b.Lookup(p.Pos)
		}
		if !ok || c != p.Choice {
			return false
		}
	}
	return true
}
