// Package testutil generates random, valid enumeration problems for tests.
package testutil

import (
	"math/rand"

	"github.com/crillab/sparsenum/confspace"
	"github.com/crillab/sparsenum/decomp"
	"github.com/crillab/sparsenum/energy"
)

// A Problem is a conformation space, a decomposition of all its positions and an energy matrix
// whose terms are all covered by the decomposition.
type Problem struct {
	Space  *confspace.Space
	Spec   *decomp.Spec
	Root   *decomp.Node
	Matrix *energy.Matrix
}

// Labels used for random sequences. Several choices of a position often share a label.
var Labels = []string{"ALA", "VAL", "GLY"}

type genNode struct {
	parent   int
	children []int
	lambda   []int
	m        []int
}

// RandomProblem returns a random problem with nbPos positions, each with 1 to maxChoices choices.
// All energies are small integers, so that scores are exact.
func RandomProblem(rng *rand.Rand, nbPos, maxChoices int) (*Problem, error) {
	space := confspace.NewSpace()
	for pos := 0; pos < nbPos; pos++ {
		nb := 1 + rng.Intn(maxChoices)
		choices := make([]confspace.Choice, nb)
		labels := make([]string, nb)
		offset := rng.Intn(3)
		for i := range choices {
			choices[i] = confspace.Choice(offset + 2*i)
			labels[i] = Labels[rng.Intn(len(Labels))]
		}
		if err := space.Add(confspace.Position(pos), choices, labels...); err != nil {
			return nil, err
		}
	}

	// Random binary tree.
	nodes := []*genNode{{parent: -1}}
	nbNodes := 1 + rng.Intn(nbPos+1)
	for len(nodes) < nbNodes {
		p := rng.Intn(len(nodes))
		if len(nodes[p].children) == 2 {
			continue
		}
		nodes[p].children = append(nodes[p].children, len(nodes))
		nodes = append(nodes, &genNode{parent: p})
	}

	// Each position is introduced at a random node and used by random descendants.
	// Every node on the path from the introducing node to a user has the position in M.
	occurs := make([][]bool, nbNodes) // occurs[node][pos]
	for i := range occurs {
		occurs[i] = make([]bool, nbPos)
	}
	for pos := 0; pos < nbPos; pos++ {
		home := rng.Intn(nbNodes)
		nodes[home].lambda = append(nodes[home].lambda, pos)
		occurs[home][pos] = true
		desc := descendants(nodes, home)
		for k := rng.Intn(3); k > 0 && len(desc) > 0; k-- {
			for cur := desc[rng.Intn(len(desc))]; !occurs[cur][pos]; cur = nodes[cur].parent {
				occurs[cur][pos] = true
				nodes[cur].m = append(nodes[cur].m, pos)
			}
		}
	}

	spec := toSpec(nodes, 0)
	root, err := decomp.Build(space, nil, spec)
	if err != nil {
		return nil, err
	}

	m := energy.NewMatrix()
	for pos := 0; pos < nbPos; pos++ {
		for _, c := range space.Choices(confspace.Position(pos)) {
			m.AddOne(confspace.P(confspace.Position(pos), c), float64(rng.Intn(11)-5))
		}
	}
	// Pairwise and triple terms are only added between positions sharing a node.
	done := make(map[[3]int]bool)
	for n := range nodes {
		var local []int
		for pos := 0; pos < nbPos; pos++ {
			if occurs[n][pos] {
				local = append(local, pos)
			}
		}
		for i := range local {
			for j := i + 1; j < len(local); j++ {
				if key := [3]int{local[i], local[j], -1}; !done[key] {
					done[key] = true
					addPairs(rng, space, m, local[i], local[j])
				}
				for k := j + 1; k < len(local); k++ {
					if key := [3]int{local[i], local[j], local[k]}; !done[key] && rng.Intn(3) == 0 {
						done[key] = true
						addTriple(rng, space, m, local[i], local[j], local[k])
					}
				}
			}
		}
	}
	return &Problem{Space: space, Spec: spec, Root: root, Matrix: m}, nil
}

func addPairs(rng *rand.Rand, space *confspace.Space, m *energy.Matrix, a, b int) {
	for _, ca := range space.Choices(confspace.Position(a)) {
		for _, cb := range space.Choices(confspace.Position(b)) {
			if rng.Intn(10) < 7 {
				_ = m.AddPair(confspace.P(confspace.Position(a), ca), confspace.P(confspace.Position(b), cb), float64(rng.Intn(7)-3))
			}
		}
	}
}

func addTriple(rng *rand.Rand, space *confspace.Space, m *energy.Matrix, a, b, c int) {
	ca := space.Choices(confspace.Position(a))
	cb := space.Choices(confspace.Position(b))
	cc := space.Choices(confspace.Position(c))
	tuple := confspace.MustNew(
		confspace.P(confspace.Position(a), ca[rng.Intn(len(ca))]),
		confspace.P(confspace.Position(b), cb[rng.Intn(len(cb))]),
		confspace.P(confspace.Position(c), cc[rng.Intn(len(cc))]),
	)
	_ = m.AddTerm(tuple, float64(rng.Intn(5)-2))
}

func descendants(nodes []*genNode, n int) []int {
	var res []int
	for _, c := range nodes[n].children {
		res = append(res, c)
		res = append(res, descendants(nodes, c)...)
	}
	return res
}

func toSpec(nodes []*genNode, n int) *decomp.Spec {
	spec := &decomp.Spec{Lambda: nodes[n].lambda, M: nodes[n].m}
	for _, c := range nodes[n].children {
		spec.Children = append(spec.Children, toSpec(nodes, c))
	}
	return spec
}
