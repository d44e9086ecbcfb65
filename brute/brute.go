// Package brute enumerates every assignment of a small conformation space.
//
// It is the reference the lazy enumerators are checked against, and is only
// usable when the number of assignments is small enough to be materialized.
package brute

import (
	"cmp"
	"slices"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/energy"
)

// A Result is an assignment with its score.
type Result struct {
	Assignment confspace.Assignment
	Score      float64
}

// A SeqResult is a sequence with its best assignment.
type SeqResult struct {
	Sequence confspace.Sequence
	Best     Result
}

func compare(x, y Result) int {
	if c := cmp.Compare(x.Score, y.Score); c != 0 {
		return c
	}
	return confspace.Compare(x.Assignment, y.Assignment)
}

// Enumerate returns every assignment of positions, sorted by score, then by assignment.
func Enumerate(space *confspace.Space, positions []confspace.Position, oracle energy.Oracle) []Result {
	var res []Result
	cur := make(confspace.Assignment, len(positions))
	for i, pos := range positions {
		cur[i].Pos = pos
	}
	var rec func(i int)
	rec = func(i int) {
		if i == len(cur) {
			a := make(confspace.Assignment, len(cur))
			copy(a, cur)
			res = append(res, Result{Assignment: a, Score: oracle.Score(a)})
			return
		}
		for _, c := range space.Choices(cur[i].Pos) {
			cur[i].Choice = c
			rec(i + 1)
		}
	}
	rec(0)
	slices.SortFunc(res, compare)
	return res
}

// Sequences returns the best assignment of each sequence, sorted as Enumerate.
func Sequences(space *confspace.Space, positions []confspace.Position, oracle energy.Oracle) []SeqResult {
	var res []SeqResult
	seen := make(map[confspace.Key]bool)
	for _, r := range Enumerate(space, positions, oracle) {
		key := r.Assignment.SequenceKey(space)
		if seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, SeqResult{Sequence: r.Assignment.Sequence(space), Best: r})
	}
	return res
}

// Scores returns the scores of results, in order.
func Scores(results []Result) []float64 {
	res := make([]float64, len(results))
	for i, r := range results {
		res[i] = r.Score
	}
	return res
}
