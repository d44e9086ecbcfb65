// Package problem reads enumeration problems from YAML files.
//
// A problem file declares the positions with their choices and optional sequence labels,
// the energy terms, and the decomposition tree. Positions are referred to by their
// external numbers everywhere in the file:
//
//	positions:
//	  - id: 12
//	    choices: [0, 1]
//	    labels: [ALA, VAL]
//	  - id: 13
//	    choices: [0, 1]
//	energies:
//	  one:
//	    - {pos: 12, choice: 1, e: -1.5}
//	  pairs:
//	    - {a: [12, 0], b: [13, 1], e: 0.5}
//	  higher:
//	    - {tuple: [[12, 0], [13, 1]], e: 0.1}
//	tree:
//	  lambda: [12]
//	  children:
//	    - {m: [12], lambda: [13]}
package problem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
)

// ErrSyntax is returned when a problem file is malformed.
var ErrSyntax = errors.New("invalid problem file")

// A PositionEntry declares a position.
type PositionEntry struct {
	ID      int      `yaml:"id"`
	Choices []int    `yaml:"choices"`
	Labels  []string `yaml:"labels"`
}

// A OneEntry is a one-body energy term.
type OneEntry struct {
	Pos    int     `yaml:"pos"`
	Choice int     `yaml:"choice"`
	E      float64 `yaml:"e"`
}

// A PairEntry is a pairwise energy term. A and B are (position, choice) couples.
type PairEntry struct {
	A []int   `yaml:"a"`
	B []int   `yaml:"b"`
	E float64 `yaml:"e"`
}

// A TermEntry is an energy term over any number of (position, choice) couples.
type TermEntry struct {
	Tuple [][]int `yaml:"tuple"`
	E     float64 `yaml:"e"`
}

// File is the raw content of a problem file.
type File struct {
	Positions []PositionEntry `yaml:"positions"`
	Energies  struct {
		One    []OneEntry  `yaml:"one"`
		Pairs  []PairEntry `yaml:"pairs"`
		Higher []TermEntry `yaml:"higher"`
	} `yaml:"energies"`
	Tree *decomp.Spec `yaml:"tree"`
}

// A Problem is a parsed problem file.
type Problem struct {
	Space  *confspace.Space
	Index  *confspace.IndexMap
	Matrix *energy.Matrix
	Tree   *decomp.Spec
}

// ParseFile parses the problem file at path.
func ParseFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	defer f.Close()
	pb, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pb, nil
}

// Parse parses a problem from r.
func Parse(r io.Reader) (*Problem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read problem: %w", err)
	}
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return file.Problem()
}

// Problem checks the content of f and returns the corresponding problem.
func (f *File) Problem() (*Problem, error) {
	if len(f.Positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrSyntax)
	}
	if f.Tree == nil {
		return nil, fmt.Errorf("%w: no tree", ErrSyntax)
	}
	ext := make([]int, len(f.Positions))
	for i, p := range f.Positions {
		ext[i] = p.ID
	}
	index, err := confspace.NewIndexMap(ext...)
	if err != nil {
		return nil, fmt.Errorf("%w: positions: %v", ErrSyntax, err)
	}
	space := confspace.NewSpace()
	for i, p := range f.Positions {
		choices := make([]confspace.Choice, len(p.Choices))
		for j, c := range p.Choices {
			choices[j] = confspace.Choice(c)
		}
		if err := space.Add(confspace.Position(i), choices, p.Labels...); err != nil {
			return nil, fmt.Errorf("%w: positions[%d] (id %d): %v", ErrSyntax, i, p.ID, err)
		}
	}
	pb := &Problem{Space: space, Index: index, Matrix: energy.NewMatrix(), Tree: f.Tree}
	for i, t := range f.Energies.One {
		pr, err := pb.pair([]int{t.Pos, t.Choice})
		if err != nil {
			return nil, fmt.Errorf("%w: energies.one[%d]: %v", ErrSyntax, i, err)
		}
		pb.Matrix.AddOne(pr, t.E)
	}
	for i, t := range f.Energies.Pairs {
		a, err := pb.pair(t.A)
		if err != nil {
			return nil, fmt.Errorf("%w: energies.pairs[%d]: %v", ErrSyntax, i, err)
		}
		b, err := pb.pair(t.B)
		if err != nil {
			return nil, fmt.Errorf("%w: energies.pairs[%d]: %v", ErrSyntax, i, err)
		}
		if err := pb.Matrix.AddPair(a, b, t.E); err != nil {
			return nil, fmt.Errorf("%w: energies.pairs[%d]: %v", ErrSyntax, i, err)
		}
	}
	for i, t := range f.Energies.Higher {
		pairs := make([]confspace.Pair, len(t.Tuple))
		for j, couple := range t.Tuple {
			if pairs[j], err = pb.pair(couple); err != nil {
				return nil, fmt.Errorf("%w: energies.higher[%d]: %v", ErrSyntax, i, err)
			}
		}
		tuple, err := confspace.New(pairs...)
		if err == nil {
			err = pb.Matrix.AddTerm(tuple, t.E)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: energies.higher[%d]: %v", ErrSyntax, i, err)
		}
	}
	return pb, nil
}

// pair translates an external (position, choice) couple.
func (pb *Problem) pair(couple []int) (confspace.Pair, error) {
	if len(couple) != 2 {
		return confspace.Pair{}, fmt.Errorf("expected a [position, choice] couple, got %v", couple)
	}
	pos, ok := pb.Index.Internal(couple[0])
	if !ok {
		return confspace.Pair{}, fmt.Errorf("position %d: %w", couple[0], confspace.ErrUnknownPosition)
	}
	if _, ok := pb.Space.ChoiceIndex(pos, confspace.Choice(couple[1])); !ok {
		return confspace.Pair{}, fmt.Errorf("position %d has no choice %d", couple[0], couple[1])
	}
	return confspace.P(pos, confspace.Choice(couple[1])), nil
}

// Build builds the decomposition tree of the problem.
func (pb *Problem) Build() (*decomp.Node, error) {
	return decomp.Build(pb.Space, pb.Index, pb.Tree)
}

// Format returns a printable version of a, using external position numbers and sequence labels.
func (pb *Problem) Format(a confspace.Assignment) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range a {
		if i > 0 {
			sb.WriteString(", ")
		}
		ext, _ := pb.Index.External(p.Pos)
		fmt.Fprintf(&sb, "%d:%d", ext, p.Choice)
		if lbl := pb.Space.Label(p.Pos, p.Choice); lbl != strconv.Itoa(int(p.Choice)) {
			sb.WriteString("/" + lbl)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
