package confspace

import "fmt"

// An IndexMap is a bidirectional lookup between internal positions (dense, starting at 0)
// and the external numbering used by inputs, such as residue numbers.
// It is built once and read-only afterwards.
type IndexMap struct {
	external []int
	internal map[int]Position
}

// NewIndexMap returns the map associating the external number external[i] with Position(i).
func NewIndexMap(external ...int) (*IndexMap, error) {
	m := &IndexMap{
		external: make([]int, len(external)),
		internal: make(map[int]Position, len(external)),
	}
	copy(m.external, external)
	for i, ext := range external {
		if _, ok := m.internal[ext]; ok {
			return nil, fmt.Errorf("external index %d: %w", ext, ErrDuplicate)
		}
		m.internal[ext] = Position(i)
	}
	return m, nil
}

// Len returns the number of mapped positions.
func (m *IndexMap) Len() int { return len(m.external) }

// Internal returns the position associated with an external number.
// A nil map is the identity.
func (m *IndexMap) Internal(ext int) (Position, bool) {
	if m == nil {
		return Position(ext), true
	}
	pos, ok := m.internal[ext]
	return pos, ok
}

// External returns the external number of pos.
// A nil map is the identity.
func (m *IndexMap) External(pos Position) (int, bool) {
	if m == nil {
		return int(pos), true
	}
	if pos < 0 || int(pos) >= len(m.external) {
		return 0, false
	}
	return m.external[pos], true
}

// Translate converts a list of external numbers into sorted internal positions.
func (m *IndexMap) Translate(ext []int) ([]Position, error) {
	res := make([]Position, 0, len(ext))
	for _, e := range ext {
		pos, ok := m.Internal(e)
		if !ok {
			return nil, fmt.Errorf("external index %d: %w", e, ErrUnknownPosition)
		}
		res = append(res, pos)
	}
	return SortPositions(res), nil
}

// SortPositions sorts positions in place, removes duplicates and returns the result.
func SortPositions(ps []Position) []Position {
	if len(ps) < 2 {
		return ps
	}
	for i := 1; i < len(ps); i++ { // Insertion sort: position sets are small.
		for j := i; j > 0 && ps[j] < ps[j-1]; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
	j := 1
	for i := 1; i < len(ps); i++ {
		if ps[i] != ps[j-1] {
			ps[j] = ps[i]
			j++
		}
	}
	return ps[:j]
}

// Union returns the sorted union of two sorted position lists.
func Union(a, b []Position) []Position {
	res := make([]Position, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			res = append(res, a[i])
			i++
		case a[i] > b[j]:
			res = append(res, b[j])
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	return append(res, b[j:]...)
}

// Intersect returns the sorted intersection of two sorted position lists.
func Intersect(a, b []Position) []Position {
	var res []Position
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	return res
}
