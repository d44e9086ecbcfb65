/*
Package confspace describes the discrete search space explored by the
enumerators of this module: a set of positions, each with an ordered, finite
list of choices, and assignments mapping positions to choices.

Describing a space

A Space is built position by position. Each position gets its choices, and
optionally one sequence label per choice (for instance the amino-acid type of
each rotamer):

    sp := confspace.NewSpace()
    if err := sp.Add(0, []confspace.Choice{0, 1, 2}, "ALA", "VAL", "VAL"); err != nil {
        ...
    }
    if err := sp.Add(1, []confspace.Choice{0, 1}); err != nil {
        ...
    }

Assignments

An Assignment is an immutable set of (position, choice) pairs, always kept in
canonical order (sorted by position). Two assignments can be merged with
Combine, which fails with ErrConflict if they disagree on a shared position;
it never overwrites silently:

    a := confspace.MustNew(confspace.P(0, 1))
    b := confspace.MustNew(confspace.P(1, 0))
    ab, err := confspace.Combine(a, b) // (0:1, 1:0)

Assignments are used as map keys through their Key, a canonical binary
encoding of the sorted pairs.

Index maps

Positions are numbered densely from 0. An IndexMap converts between this
numbering and whatever external numbering (residue numbers, for instance) the
inputs use.
*/
package confspace
