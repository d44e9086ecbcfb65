package confspace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrConflict is returned when two assignments bind the same position to different choices.
var ErrConflict = errors.New("conflicting assignments")

// A Pair binds a position to a choice.
type Pair struct {
	Pos    Position
	Choice Choice
}

// P is a shorthand for Pair{pos, c}.
func P(pos Position, c Choice) Pair { return Pair{Pos: pos, Choice: c} }

func (p Pair) String() string { return fmt.Sprintf("%d:%d", p.Pos, p.Choice) }

// An Assignment is a conflict-free, partial or total binding of positions to choices.
// Pairs are always sorted by position, and no position appears twice.
// Assignments are values: no function of this package modifies an existing assignment.
type Assignment []Pair

// Empty is the assignment binding no position.
var Empty = Assignment{}

// New returns the canonical assignment made of the given pairs, in any order.
// A pair given twice is accepted, but a position bound to two different choices is an error.
func New(pairs ...Pair) (Assignment, error) {
	res := make(Assignment, len(pairs))
	copy(res, pairs)
	sort.Slice(res, func(i, j int) bool { return res[i].Pos < res[j].Pos })
	j := 0
	for i := range res {
		if j > 0 && res[j-1].Pos == res[i].Pos {
			if res[j-1].Choice != res[i].Choice {
				return nil, fmt.Errorf("position %d bound to %d and %d: %w", res[i].Pos, res[j-1].Choice, res[i].Choice, ErrConflict)
			}
			continue
		}
		res[j] = res[i]
		j++
	}
	return res[:j], nil
}

// MustNew is like New but panics on conflicts.
func MustNew(pairs ...Pair) Assignment {
	a, err := New(pairs...)
	if err != nil {
		panic(err)
	}
	return a
}

// FromSlice builds the assignment binding positions[i] to choices[i].
func FromSlice(positions []Position, choices []Choice) (Assignment, error) {
	if len(positions) != len(choices) {
		return nil, fmt.Errorf("got %d positions for %d choices", len(positions), len(choices))
	}
	pairs := make([]Pair, len(positions))
	for i := range positions {
		pairs[i] = Pair{Pos: positions[i], Choice: choices[i]}
	}
	return New(pairs...)
}

// Combine returns the union of a and b. Neither a nor b is modified.
// It fails with ErrConflict if a position is bound to different choices in a and b.
func Combine(a, b Assignment) (Assignment, error) {
	if len(b) == 0 {
		return a, nil
	}
	if len(a) == 0 {
		return b, nil
	}
	res := make(Assignment, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Pos < b[j].Pos:
			res = append(res, a[i])
			i++
		case a[i].Pos > b[j].Pos:
			res = append(res, b[j])
			j++
		default:
			if a[i].Choice != b[j].Choice {
				return nil, fmt.Errorf("combining %v with %v: position %d bound to %d and %d: %w",
					a, b, a[i].Pos, a[i].Choice, b[j].Choice, ErrConflict)
			}
			res = append(res, a[i])
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	res = append(res, b[j:]...)
	return res, nil
}

// MustCombine is like Combine but panics on conflicts.
func MustCombine(a, b Assignment) Assignment {
	res, err := Combine(a, b)
	if err != nil {
		panic(err)
	}
	return res
}

// Len returns the number of bound positions.
func (a Assignment) Len() int { return len(a) }

// Lookup returns the choice bound to pos, if any.
func (a Assignment) Lookup(pos Position) (Choice, bool) {
	i := sort.Search(len(a), func(i int) bool { return a[i].Pos >= pos })
	if i < len(a) && a[i].Pos == pos {
		return a[i].Choice, true
	}
	return 0, false
}

// Positions returns the sorted list of bound positions.
func (a Assignment) Positions() []Position {
	res := make([]Position, len(a))
	for i, p := range a {
		res[i] = p.Pos
	}
	return res
}

// Project returns the restriction of a to the given positions.
// positions must be sorted.
func (a Assignment) Project(positions []Position) Assignment {
	res := make(Assignment, 0, len(positions))
	i, j := 0, 0
	for i < len(a) && j < len(positions) {
		switch {
		case a[i].Pos < positions[j]:
			i++
		case a[i].Pos > positions[j]:
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	return res
}

// Equal is true iff a and b bind the same positions to the same choices.
func (a Assignment) Equal(b Assignment) bool { return Compare(a, b) == 0 }

// Compare orders assignments lexicographically on their (position, choice) pairs.
// It returns -1, 0 or 1.
func Compare(a, b Assignment) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i].Pos < b[i].Pos:
			return -1
		case a[i].Pos > b[i].Pos:
			return 1
		case a[i].Choice < b[i].Choice:
			return -1
		case a[i].Choice > b[i].Choice:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Consistent is true iff a and b agree on all the positions they share.
func Consistent(a, b Assignment) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Pos < b[j].Pos:
			i++
		case a[i].Pos > b[j].Pos:
			j++
		default:
			if a[i].Choice != b[j].Choice {
				return false
			}
			i++
			j++
		}
	}
	return true
}

func (a Assignment) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range a {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// A Key is a canonical, comparable encoding of an assignment.
// Two assignments have the same key iff they are equal.
type Key string

const pairWidth = 8

// Key returns the canonical key of a.
func (a Assignment) Key() Key {
	buf := make([]byte, len(a)*pairWidth)
	for i, p := range a {
		binary.BigEndian.PutUint32(buf[i*pairWidth:], uint32(p.Pos))
		binary.BigEndian.PutUint32(buf[i*pairWidth+4:], uint32(p.Choice))
	}
	return Key(buf)
}

// Assignment decodes k.
func (k Key) Assignment() Assignment {
	res := make(Assignment, len(k)/pairWidth)
	for i := range res {
		res[i].Pos = Position(int32(binary.BigEndian.Uint32([]byte(k[i*pairWidth:]))))
		res[i].Choice = Choice(int32(binary.BigEndian.Uint32([]byte(k[i*pairWidth+4:]))))
	}
	return res
}

// Hash64 returns a short fingerprint of k, for display and logging purposes.
// Unlike the key itself, fingerprints may collide.
func (k Key) Hash64() uint64 { return xxhash.Sum64String(string(k)) }
