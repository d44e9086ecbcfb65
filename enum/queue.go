/******************************************************************************************[Heap.h]
Copyright (c) 2003-2006, Niklas Een, Niklas Sorensson
Copyright (c) 2007-2010, Niklas Sorensson

Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
associated documentation files (the "Software"), to deal in the Software without restriction,
including without limitation the rights to use, copy, modify, merge, publish, distribute,
sublicense, and/or sell copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all copies or
substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM,
DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT
OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
**************************************************************************************************/

package enum

// A binary min-heap, strongly inspired from Minisat's mtl/Heap.h.
// Items are never updated in place: they are removed, then inserted again.

type queue[T any] struct {
	lt      func(x, y T) bool // Strict order on items.
	content []T
}

func newQueue[T any](lt func(x, y T) bool) queue[T] {
	return queue[T]{lt: lt}
}

// Traversal functions.
func left(i int) int   { return i*2 + 1 }
func right(i int) int  { return (i + 1) * 2 }
func parent(i int) int { return (i - 1) >> 1 }

func (q *queue[T]) percolateUp(i int) {
	x := q.content[i]
	p := parent(i)
	for i != 0 && q.lt(x, q.content[p]) {
		q.content[i] = q.content[p]
		i = p
		p = parent(p)
	}
	q.content[i] = x
}

func (q *queue[T]) percolateDown(i int) {
	x := q.content[i]
	for left(i) < len(q.content) {
		var child int
		if right(i) < len(q.content) && q.lt(q.content[right(i)], q.content[left(i)]) {
			child = right(i)
		} else {
			child = left(i)
		}
		if !q.lt(q.content[child], x) {
			break
		}
		q.content[i] = q.content[child]
		i = child
	}
	q.content[i] = x
}

func (q *queue[T]) len() int    { return len(q.content) }
func (q *queue[T]) empty() bool { return len(q.content) == 0 }

// min returns the smallest item without removing it. The queue must not be empty.
func (q *queue[T]) min() T {
	return q.content[0]
}

func (q *queue[T]) insert(x T) {
	q.content = append(q.content, x)
	q.percolateUp(len(q.content) - 1)
}

func (q *queue[T]) removeMin() T {
	x := q.content[0]
	last := len(q.content) - 1
	q.content[0] = q.content[last]
	var zero T
	q.content[last] = zero
	q.content = q.content[:last]
	if len(q.content) > 1 {
		q.percolateDown(0)
	}
	return x
}

// Rebuild the heap from scratch, using the elements in 'xs':
func (q *queue[T]) build(xs []T) {
	q.content = append(q.content[:0], xs...)
	for i := len(q.content)/2 - 1; i >= 0; i-- {
		q.percolateDown(i)
	}
}

// clone returns a heap holding dup(x) for each item x of q.
// dup must preserve the order of items.
func (q *queue[T]) clone(dup func(T) T) queue[T] {
	res := queue[T]{lt: q.lt, content: make([]T, len(q.content))}
	for i, x := range q.content {
		res.content[i] = dup(x)
	}
	return res
}
