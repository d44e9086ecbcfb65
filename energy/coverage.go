package energy

import (
	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
)

// Uncovered returns the terms whose positions never appear together in the M ∪ Lambda set of
// a single node of the tree rooted at root.
// The enumerators score a term at the node where its last position is introduced: an
// uncovered term is missed from the scores of the enumerators.
func Uncovered(root *decomp.Node, terms []Term) []Term {
	var res []Term
	for _, t := range terms {
		positions := t.Tuple.Positions()
		covered := false
		root.Walk(func(n *decomp.Node) {
			if !covered && len(confspace.Intersect(n.Local(), positions)) == len(positions) {
				covered = true
			}
		})
		if !covered {
			res = append(res, t)
		}
	}
	return res
}
