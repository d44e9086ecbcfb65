package decomp

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/crillab/sparsenum/confspace"
)

// external translates positions back into the external numbering.
func (n *Node) external(ps []confspace.Position) []int {
	res := make([]int, len(ps))
	for i, pos := range ps {
		ext, ok := n.index.External(pos)
		if !ok {
			ext = int(pos)
		}
		res[i] = ext
	}
	return res
}

func (n *Node) describe() string {
	return fmt.Sprintf("%v - L Set:%v - M Set:%v", n.external(n.lambda), n.external(n.l), n.external(n.m))
}

// String returns a printable version of the tree rooted at n, using the external numbering.
func (n *Node) String() string {
	var sb strings.Builder
	n.print(&sb, "")
	return sb.String()
}

func (n *Node) print(sb *strings.Builder, prefix string) {
	sb.WriteString(prefix)
	sb.WriteString(n.describe())
	sb.WriteByte('\n')
	if n.left != nil {
		n.left.print(sb, prefix+"+L--")
	}
	if n.right != nil {
		n.right.print(sb, prefix+"+R--")
	}
}

type dotNode struct {
	n *Node
}

func (d dotNode) ID() int64     { return int64(d.n.id) }
func (d dotNode) DOTID() string { return fmt.Sprintf("n%d", d.n.id) }

func (d dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "shape", Value: "box"},
		{Key: "label", Value: fmt.Sprintf("λ=%v M=%v", d.n.external(d.n.lambda), d.n.external(d.n.m))},
	}
}

type dotEdge struct {
	from, to graph.Node
	side     string
}

func (e dotEdge) From() graph.Node         { return e.from }
func (e dotEdge) To() graph.Node           { return e.to }
func (e dotEdge) ReversedEdge() graph.Edge { return dotEdge{from: e.to, to: e.from, side: e.side} }

func (e dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: e.side}}
}

// Graph returns the tree rooted at n as a directed graph, edges going from parents to children.
// Graph node ids are the preorder ids of the tree nodes.
func (n *Node) Graph() graph.Directed {
	g := simple.NewDirectedGraph()
	n.Walk(func(cur *Node) { g.AddNode(dotNode{cur}) })
	n.Walk(func(cur *Node) {
		if cur.left != nil {
			g.SetEdge(dotEdge{from: dotNode{cur}, to: dotNode{cur.left}, side: "L"})
		}
		if cur.right != nil {
			g.SetEdge(dotEdge{from: dotNode{cur}, to: dotNode{cur.right}, side: "R"})
		}
	})
	return g
}

// DOT returns the graphviz description of the tree rooted at n.
func (n *Node) DOT() ([]byte, error) {
	return dot.Marshal(n.Graph(), "decomposition", "", "  ")
}
