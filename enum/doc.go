/*
Package enum enumerates, lazily and best first, the assignments of the positions
of a decomposition tree.

An Enumerator is built upon a decomp.Node and an energy.Oracle. Once preprocessed,
it returns one assignment per call to NextBest, in non-decreasing order of energy,
without ever materializing the product of all choices:

    e, err := enum.New(root, oracle)
    if err != nil {
        return err
    }
    if err := e.Preprocess(ctx, false); err != nil {
        return err
    }
    for {
        more, err := e.HasMore(confspace.Empty)
        if err != nil || !more {
            break
        }
        best, _ := e.NextBest(confspace.Empty)
        fmt.Println(best.Assignment, best.Score)
    }

How it works

Preprocessing builds, for each node and each assignment of its boundary M, a template heap
holding one candidate per local assignment of M ∪ Lambda. The key of a candidate is the energy
of its own terms plus the cost of the best completion of each child.

When a caller asks for the completions of a given context, the template of its boundary is
cloned into a query heap. Popping a candidate returns its local assignment combined with the
next completion of its children, and reinserts the candidate with the cost of the following one.
The completions of a child for a given boundary are memoized in a cache shared by every
candidate of the parent, so that each child completion is only computed once.
When a node has two children, their completions are merged with a heap of (left, right) index pairs.

A SeqEnumerator works the same way, but only keeps the best assignment of each sequence.

Errors

Internal contract violations (conflicting assignments, results out of order, scores that
differ from the oracle's) are reported as *Fault errors. An enumerator that met a fault
is aborted.
*/
package enum
