package decomp

import (
	"errors"
	"fmt"
	"math"

	"github.com/crillab/sparsenum/confspace"
)

var (
	// ErrScope is the cause of the panics raised when an assignment does not match the scope expected by a node.
	ErrScope = errors.New("assignment does not match node scope")
	// ErrShape is returned when a tree cannot be built.
	ErrShape = errors.New("invalid decomposition tree")
)

// A Spec is the external description of a decomposition tree.
// Positions are given in external numbering.
type Spec struct {
	Lambda   []int   `yaml:"lambda"`
	M        []int   `yaml:"m"`
	Children []*Spec `yaml:"children"`
}

// A Node is a node of a decomposition tree.
// Nodes are immutable once built, except for their list of processors.
type Node struct {
	space      *confspace.Space
	index      *confspace.IndexMap
	id         int                  // Rank in preorder, starting at 0 at the root.
	lambda     []confspace.Position // All position lists are sorted.
	m          []confspace.Position
	local      []confspace.Position // M ∪ Lambda
	l          []confspace.Position
	radix      []int // Cardinality of each position of M.
	nbM        int   // Number of assignments of M.
	left       *Node
	right      *Node
	processors []Processor
}

// Build builds a tree from its specification.
// index translates the external numbering of spec; a nil index is the identity.
func Build(space *confspace.Space, index *confspace.IndexMap, spec *Spec) (*Node, error) {
	id := 0
	return build(space, index, spec, &id)
}

func build(space *confspace.Space, index *confspace.IndexMap, spec *Spec, id *int) (*Node, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil node", ErrShape)
	}
	if len(spec.Children) > 2 {
		return nil, fmt.Errorf("%w: node has %d children", ErrShape, len(spec.Children))
	}
	n := &Node{space: space, index: index, id: *id}
	*id++
	var err error
	if n.lambda, err = translate(space, index, spec.Lambda); err != nil {
		return nil, fmt.Errorf("lambda set: %w", err)
	}
	if n.m, err = translate(space, index, spec.M); err != nil {
		return nil, fmt.Errorf("M set: %w", err)
	}
	n.local = confspace.Union(n.m, n.lambda)
	n.l = n.local
	children := make([]*Node, len(spec.Children))
	for i, child := range spec.Children {
		if children[i], err = build(space, index, child, id); err != nil {
			return nil, err
		}
		n.l = confspace.Union(n.l, children[i].l)
	}
	if len(children) > 0 {
		n.left = children[0]
	}
	if len(children) > 1 {
		n.right = children[1]
	}
	n.radix = make([]int, len(n.m))
	n.nbM = 1
	for i, pos := range n.m {
		n.radix[i] = space.NbChoices(pos)
		if n.radix[i] != 0 && n.nbM > math.MaxInt32/n.radix[i] {
			return nil, fmt.Errorf("%w: too many boundary assignments for M set %v", ErrShape, n.m)
		}
		n.nbM *= n.radix[i]
	}
	return n, nil
}

func translate(space *confspace.Space, index *confspace.IndexMap, ext []int) ([]confspace.Position, error) {
	res, err := index.Translate(append([]int(nil), ext...))
	if err != nil {
		return nil, err
	}
	for _, pos := range res {
		if !space.Has(pos) {
			return nil, fmt.Errorf("position %d: %w", pos, confspace.ErrUnknownPosition)
		}
	}
	return res, nil
}

// ID returns the rank of the node in a preorder traversal of its tree.
func (n *Node) ID() int { return n.id }

// Space returns the conformation space the node was built upon.
func (n *Node) Space() *confspace.Space { return n.space }

// Lambda returns the positions introduced at n.
func (n *Node) Lambda() []confspace.Position { return n.lambda }

// M returns the boundary positions of n.
func (n *Node) M() []confspace.Position { return n.m }

// Local returns M ∪ Lambda.
func (n *Node) Local() []confspace.Position { return n.local }

// L returns all the positions covered by the subtree rooted at n.
func (n *Node) L() []confspace.Position { return n.l }

// Left returns the first child of n, or nil.
func (n *Node) Left() *Node { return n.left }

// Right returns the second child of n, or nil.
func (n *Node) Right() *Node { return n.right }

// IsLeaf is true iff n has no children.
func (n *Node) IsLeaf() bool { return n.left == nil }

// IsRoot is true iff n has an empty boundary.
func (n *Node) IsRoot() bool { return len(n.m) == 0 }

// NbBoundaries returns the number of distinct assignments of M, i.e the number of boundary indices.
func (n *Node) NbBoundaries() int { return n.nbM }

// Walk calls fn on each node of the subtree, in preorder.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	if n.left != nil {
		n.left.Walk(fn)
	}
	if n.right != nil {
		n.right.Walk(fn)
	}
}

// IndexOf returns the boundary index of a, an assignment of exactly the M positions of n.
// It panics if the domain of a is not M.
func (n *Node) IndexOf(a confspace.Assignment) int {
	if len(a) != len(n.m) {
		panic(n.scopeError("boundary", a, n.m))
	}
	idx, mul := 0, 1
	for i, p := range a {
		if p.Pos != n.m[i] {
			panic(n.scopeError("boundary", a, n.m))
		}
		rank, ok := n.space.ChoiceIndex(p.Pos, p.Choice)
		if !ok {
			panic(fmt.Errorf("%w: node %d: choice %d is not valid at position %d", ErrScope, n.id, p.Choice, p.Pos))
		}
		idx += rank * mul
		mul *= n.radix[i]
	}
	return idx
}

// AssignmentAt is the inverse of IndexOf.
func (n *Node) AssignmentAt(idx int) confspace.Assignment {
	if idx < 0 || idx >= n.nbM {
		panic(fmt.Errorf("%w: node %d: boundary index %d out of range [0, %d)", ErrScope, n.id, idx, n.nbM))
	}
	res := make(confspace.Assignment, len(n.m))
	for i, pos := range n.m {
		res[i] = confspace.P(pos, n.space.Choices(pos)[idx%n.radix[i]])
		idx /= n.radix[i]
	}
	return res
}

// ExtractM returns the restriction of a to M.
// It panics if a does not bind every position of M.
func (n *Node) ExtractM(a confspace.Assignment) confspace.Assignment {
	res := a.Project(n.m)
	if len(res) != len(n.m) {
		panic(n.scopeError("M", a, n.m))
	}
	return res
}

// ExtractLambda returns the restriction of a to Lambda.
// It panics if a does not bind every position of Lambda.
func (n *Node) ExtractLambda(a confspace.Assignment) confspace.Assignment {
	res := a.Project(n.lambda)
	if len(res) != len(n.lambda) {
		panic(n.scopeError("lambda", a, n.lambda))
	}
	return res
}

// ExtractLocal returns the restriction of a to M ∪ Lambda.
func (n *Node) ExtractLocal(a confspace.Assignment) confspace.Assignment { return a.Project(n.local) }

// ExtractL returns the restriction of a to L.
func (n *Node) ExtractL(a confspace.Assignment) confspace.Assignment { return a.Project(n.l) }

func (n *Node) scopeError(set string, a confspace.Assignment, want []confspace.Position) error {
	return fmt.Errorf("%w: node %d: %v does not cover %s set %v", ErrScope, n.id, a, set, want)
}
