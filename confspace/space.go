package confspace

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// Position identifies one flexible slot. Positions are numbered from 0.
type Position int

// Choice is one discrete option (e.g a rotamer) for a position.
type Choice int

var (
	// ErrUnknownPosition is returned when a position is not part of the space.
	ErrUnknownPosition = errors.New("unknown position")
	// ErrDuplicate is returned when a position or a choice is declared twice.
	ErrDuplicate = errors.New("duplicate declaration")
)

// posSpace is the description of a single position.
type posSpace struct {
	choices []Choice
	labels  []string       // Sequence label of each choice; nil when no labels were given.
	indices map[Choice]int // Reverse of choices.
}

// A Space associates each position with its ordered list of choices.
// Once built, a Space must not be modified: it is shared by all the
// structures of an enumeration session.
type Space struct {
	positions []Position // Sorted.
	pos       map[Position]*posSpace
}

// NewSpace returns an empty space.
func NewSpace() *Space {
	return &Space{pos: make(map[Position]*posSpace)}
}

// Add declares a new position with the given choices.
// If labels are provided, there must be exactly one label per choice.
func (s *Space) Add(pos Position, choices []Choice, labels ...string) error {
	if _, ok := s.pos[pos]; ok {
		return fmt.Errorf("position %d: %w", pos, ErrDuplicate)
	}
	if len(labels) != 0 && len(labels) != len(choices) {
		return fmt.Errorf("position %d: got %d labels for %d choices", pos, len(labels), len(choices))
	}
	ps := &posSpace{
		choices: make([]Choice, len(choices)),
		indices: make(map[Choice]int, len(choices)),
	}
	copy(ps.choices, choices)
	for i, c := range choices {
		if _, ok := ps.indices[c]; ok {
			return fmt.Errorf("position %d, choice %d: %w", pos, c, ErrDuplicate)
		}
		ps.indices[c] = i
	}
	if len(labels) != 0 {
		ps.labels = make([]string, len(labels))
		copy(ps.labels, labels)
	}
	s.pos[pos] = ps
	i := sort.Search(len(s.positions), func(i int) bool { return s.positions[i] >= pos })
	s.positions = append(s.positions, 0)
	copy(s.positions[i+1:], s.positions[i:])
	s.positions[i] = pos
	return nil
}

// Positions returns the sorted list of positions. The slice must not be modified.
func (s *Space) Positions() []Position { return s.positions }

// NbPositions returns the number of positions in the space.
func (s *Space) NbPositions() int { return len(s.positions) }

// Has is true iff pos is part of the space.
func (s *Space) Has(pos Position) bool {
	_, ok := s.pos[pos]
	return ok
}

// Choices returns the ordered choices of pos. The slice must not be modified.
// It panics if pos is unknown.
func (s *Space) Choices(pos Position) []Choice {
	return s.get(pos).choices
}

// NbChoices returns the cardinality of pos.
func (s *Space) NbChoices(pos Position) int {
	return len(s.get(pos).choices)
}

// ChoiceIndex returns the rank of c in the choices of pos.
func (s *Space) ChoiceIndex(pos Position, c Choice) (int, bool) {
	i, ok := s.get(pos).indices[c]
	return i, ok
}

// Label returns the sequence label of choice c at pos.
// When no labels were given for pos, the label is the choice itself.
func (s *Space) Label(pos Position, c Choice) string {
	ps := s.get(pos)
	if ps.labels == nil {
		return strconv.Itoa(int(c))
	}
	i, ok := ps.indices[c]
	if !ok {
		panic(fmt.Sprintf("position %d has no choice %d", pos, c))
	}
	return ps.labels[i]
}

// Count returns the product of the cardinalities of positions.
// The result is exact, no matter how big.
func (s *Space) Count(positions []Position) *big.Int {
	res := big.NewInt(1)
	for _, p := range positions {
		res.Mul(res, big.NewInt(int64(s.NbChoices(p))))
	}
	return res
}

// Size returns the total number of complete assignments of the space.
func (s *Space) Size() *big.Int { return s.Count(s.positions) }

// Contains is true iff every pair of a is a valid (position, choice) of the space.
func (s *Space) Contains(a Assignment) bool {
	for _, p := range a {
		ps, ok := s.pos[p.Pos]
		if !ok {
			return false
		}
		if _, ok := ps.indices[p.Choice]; !ok {
			return false
		}
	}
	return true
}

func (s *Space) get(pos Position) *posSpace {
	ps, ok := s.pos[pos]
	if !ok {
		panic(fmt.Sprintf("position %d: %v", pos, ErrUnknownPosition))
	}
	return ps
}
