package enum

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/crillab/sparsenum/confspace"
)

var (
	// ErrExhausted is returned when no more results are available for a context.
	ErrExhausted = errors.New("no more results")
	// ErrNotReady is returned when results are requested before preprocessing.
	ErrNotReady = errors.New("enumerator was not preprocessed")
	// ErrSealed is raised when a candidate is added to a template heap that was already cloned.
	ErrSealed = errors.New("template heap is sealed")
	// ErrDuplicate is raised when a subtree produces the same completion twice.
	ErrDuplicate = errors.New("duplicate completion")
	// ErrOrder is raised when results would be returned out of order.
	ErrOrder = errors.New("results out of order")
	// ErrScoreMismatch is raised when a returned score differs from the score of the oracle.
	ErrScoreMismatch = errors.New("score does not match oracle")
)

// A Fault is an internal contract violation. Once an enumerator
// met a fault, it is aborted: every later request returns the same fault.
type Fault struct {
	Node    int                  // Id of the node where the fault was detected.
	Context confspace.Assignment // Assignment being completed when the fault was detected.
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at node %d, context %v: %v", f.Node, f.Context, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// raise panics with a fault. Panics are recovered by the public methods.
func raise(node int, context confspace.Assignment, err error) {
	panic(&Fault{Node: node, Context: context, Err: err})
}

// asFault converts a recovered panic value into a fault.
// Runtime errors and non-error values are not faults and are panicked again.
func asFault(r interface{}, node int, context confspace.Assignment) *Fault {
	switch r := r.(type) {
	case *Fault:
		return r
	case runtime.Error:
		panic(r)
	case error:
		return &Fault{Node: node, Context: context, Err: r}
	default:
		panic(r)
	}
}
