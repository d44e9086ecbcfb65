/*
Package decomp holds the static tree decomposition the enumerators work on.

Each Node of the tree partitions positions into three sets:

    Lambda: the positions introduced at this node,
    M:      the boundary positions shared with the parent, already assigned by ancestors,
    L:      every position covered by the node's subtree (M, Lambda and the children's L).

A node has zero, one or two children. The tree is built by an external
decomposition algorithm and must satisfy the running intersection property: the
nodes where a given position appears (in M or Lambda) form a connected subtree.
This is trusted, not verified while enumerating; CheckRunningIntersection is
provided for tooling.

Describing a tree

A tree is described by a Spec, using the external numbering of positions:

    spec := &decomp.Spec{
        Lambda: []int{12},
        Children: []*decomp.Spec{
            {M: []int{12}, Lambda: []int{13}},
        },
    }
    root, err := decomp.Build(space, index, spec)

Boundary indices

Every assignment of the M positions of a node is mapped to a dense integer by a
mixed-radix encoding over the cardinalities of the M positions (IndexOf). This
index is used by enumerators as an array index for their per-boundary caches.

Processing local combinations

Processors registered on a node are called once for each combination of
choices of the node's M ∪ Lambda positions when Preprocess is called.
Children are always preprocessed before their parent.
*/
package decomp
