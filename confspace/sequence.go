package confspace

import (
	"encoding/binary"
	"strings"
)

// A Sequence is the projection of an assignment to the sequence labels of its choices,
// in position order. Several assignments (e.g several rotamers of the same amino acid)
// can share the same sequence.
type Sequence []string

// Sequence returns the labels of the choices of a in s.
func (a Assignment) Sequence(s *Space) Sequence {
	res := make(Sequence, len(a))
	for i, p := range a {
		res[i] = s.Label(p.Pos, p.Choice)
	}
	return res
}

// SequenceKey returns a key identifying the sequence of a, including its positions.
// Two assignments over the same positions have the same sequence key iff their
// choices have the same labels.
func (a Assignment) SequenceKey(s *Space) Key {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	for _, p := range a {
		lbl := s.Label(p.Pos, p.Choice)
		buf = binary.BigEndian.AppendUint32(buf, uint32(p.Pos))
		n := binary.PutUvarint(tmp[:], uint64(len(lbl)))
		buf = append(buf, tmp[:n]...)
		buf = append(buf, lbl...)
	}
	return Key(buf)
}

func (seq Sequence) String() string { return strings.Join(seq, "-") }
