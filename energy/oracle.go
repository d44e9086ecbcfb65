// Package energy defines how assignments are scored.
//
// The enumerators of this module never evaluate a forcefield themselves: they
// ask an Oracle for the internal energy of partial assignments. An Oracle must
// be referentially pure: scoring the same assignment twice must give the same
// value, otherwise the enumeration order cannot be guaranteed.
package energy

import "github.com/crillab/sparsenum/confspace"

// An Oracle scores assignments.
type Oracle interface {
	// Score returns the internal energy of a self-consistent assignment.
	Score(a confspace.Assignment) float64
	// ScoreDelta returns the energy contributed by addition alone once prior is already
	// assigned, i.e every term involving at least one position of addition,
	// but none already attributed to prior.
	ScoreDelta(prior, addition confspace.Assignment) float64
}

// Func adapts a plain scoring function to the Oracle interface.
// Its ScoreDelta is f(prior ∪ addition) - f(prior).
type Func func(a confspace.Assignment) float64

// Score returns f(a).
func (f Func) Score(a confspace.Assignment) float64 { return f(a) }

// ScoreDelta returns f(prior ∪ addition) - f(prior).
// It panics if prior and addition conflict.
func (f Func) ScoreDelta(prior, addition confspace.Assignment) float64 {
	if len(addition) == 0 {
		return 0
	}
	return f(confspace.MustCombine(prior, addition)) - f(prior)
}
