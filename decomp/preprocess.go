package decomp

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/crillab/sparsenum/confspace"
)

// A Processor is notified of every local combination of the nodes it is registered on.
type Processor interface {
	// Process is called with an assignment of exactly the M ∪ Lambda positions of the node.
	// The assignment is owned by the processor.
	Process(local confspace.Assignment)
	// Recurse indicates whether the processor must be registered on the whole subtree.
	Recurse() bool
}

// ProcessorFunc adapts a function to the Processor interface. It does not recurse.
type ProcessorFunc func(local confspace.Assignment)

// Process calls f(local).
func (f ProcessorFunc) Process(local confspace.Assignment) { f(local) }

// Recurse returns false.
func (f ProcessorFunc) Recurse() bool { return false }

// AddProcessor registers p on n.
// If p recurses, it is first registered on the children, so that, in any processor
// list, a processor registered on a whole subtree appears after its children.
func (n *Node) AddProcessor(p Processor) {
	if p.Recurse() {
		if n.left != nil {
			n.left.AddProcessor(p)
		}
		if n.right != nil {
			n.right.AddProcessor(p)
		}
	}
	n.processors = append(n.processors, p)
}

// Preprocess preprocesses the children of n, then calls every processor of n
// once for each combination of its local positions.
func (n *Node) Preprocess() {
	if n.left != nil {
		n.left.Preprocess()
	}
	if n.right != nil {
		n.right.Preprocess()
	}
	_ = n.processLocal(context.Background())
}

// PreprocessParallel is Preprocess, but sibling subtrees are processed concurrently.
// It is only valid when every processor only touches state owned by its node.
// Panics raised by processors are returned as errors.
// Processing stops early when ctx is done.
func (n *Node) PreprocessParallel(ctx context.Context) error {
	if n.left != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return guard(func() error { return n.left.PreprocessParallel(gctx) }) })
		if n.right != nil {
			g.Go(func() error { return guard(func() error { return n.right.PreprocessParallel(gctx) }) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return guard(func() error { return n.processLocal(ctx) })
}

// guard turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("preprocessing: %w", e)
			} else {
				err = fmt.Errorf("preprocessing: %v", r)
			}
		}
	}()
	return fn()
}

const checkEvery = 1 << 10

// processLocal enumerates every local combination by backtracking over the positions of Local.
func (n *Node) processLocal(ctx context.Context) error {
	if len(n.processors) == 0 {
		return nil
	}
	cur := make(confspace.Assignment, len(n.local))
	for i, pos := range n.local {
		cur[i].Pos = pos
	}
	nb := 0
	var rec func(i int) error
	rec = func(i int) error {
		if i == len(n.local) {
			if nb%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			nb++
			local := make(confspace.Assignment, len(cur))
			copy(local, cur)
			for _, p := range n.processors {
				p.Process(local)
			}
			return nil
		}
		for _, c := range n.space.Choices(n.local[i]) {
			cur[i].Choice = c
			if err := rec(i + 1); err != nil {
				return err
			}
		}
		return nil
	}
	return rec(0)
}

// TotalLocalConformations returns the number of assignments of M ∪ Lambda.
func (n *Node) TotalLocalConformations() *big.Int { return n.space.Count(n.local) }

// TotalMConformations returns the number of assignments of M.
func (n *Node) TotalMConformations() *big.Int { return n.space.Count(n.m) }

// TotalLambdaConformations returns the number of assignments of Lambda.
func (n *Node) TotalLambdaConformations() *big.Int { return n.space.Count(n.lambda) }

// TotalConformations returns the number of assignments of L.
func (n *Node) TotalConformations() *big.Int { return n.space.Count(n.l) }

// SubtreeLocalConformations returns the sum of TotalLocalConformations over the subtree,
// i.e the number of local combinations a full preprocessing goes through.
func (n *Node) SubtreeLocalConformations() *big.Int {
	res := n.TotalLocalConformations()
	if n.left != nil {
		res.Add(res, n.left.SubtreeLocalConformations())
	}
	if n.right != nil {
		res.Add(res, n.right.SubtreeLocalConformations())
	}
	return res
}
