package decomp

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/crillab/sparsenum/confspace"
)

// CheckRunningIntersection verifies that the tree rooted at n is a valid decomposition:
// Lambda and M are disjoint at every node, the M set of each child is exactly the set of
// positions it shares with its parent, and the nodes where a position appears form a connected subtree.
// Enumerators never call it: trees are trusted.
func CheckRunningIntersection(n *Node) error {
	nodes := make(map[int64]*Node)
	g := simple.NewUndirectedGraph()
	n.Walk(func(cur *Node) {
		nodes[int64(cur.id)] = cur
		g.AddNode(simple.Node(cur.id))
	})
	var err error
	n.Walk(func(cur *Node) {
		if err != nil {
			return
		}
		if common := confspace.Intersect(cur.lambda, cur.m); len(common) != 0 {
			err = fmt.Errorf("%w: node %d: positions %v are both in lambda and M", ErrShape, cur.id, cur.external(common))
			return
		}
		for _, child := range []*Node{cur.left, cur.right} {
			if child == nil {
				continue
			}
			shared := confspace.Intersect(cur.local, child.local)
			if !samePositions(shared, child.m) {
				err = fmt.Errorf("%w: node %d: M set %v should be %v, the positions shared with its parent",
					ErrShape, child.id, cur.external(child.m), cur.external(shared))
				return
			}
			g.SetEdge(simple.Edge{F: simple.Node(cur.id), T: simple.Node(child.id)})
		}
	})
	if err != nil {
		return err
	}
	for _, pos := range n.l {
		var holders []*Node
		n.Walk(func(cur *Node) {
			if hasPosition(cur.local, pos) {
				holders = append(holders, cur)
			}
		})
		reached := 0
		bf := traverse.BreadthFirst{
			Visit: func(graph.Node) { reached++ },
			Traverse: func(e graph.Edge) bool {
				return hasPosition(nodes[e.From().ID()].local, pos) && hasPosition(nodes[e.To().ID()].local, pos)
			},
		}
		bf.Walk(g, simple.Node(holders[0].id), nil)
		if reached != len(holders) {
			ext, _ := n.index.External(pos)
			return fmt.Errorf("%w: position %d appears in %d nodes that are not connected", ErrShape, ext, len(holders))
		}
	}
	return nil
}

func hasPosition(ps []confspace.Position, pos confspace.Position) bool {
	for _, p := range ps {
		if p == pos {
			return true
		}
		if p > pos {
			return false
		}
	}
	return false
}

func samePositions(a, b []confspace.Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
