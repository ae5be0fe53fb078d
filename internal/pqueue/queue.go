// Package pqueue is a binary min-heap keyed by a float64 priority.
package pqueue

type entry[T any] struct {
	item     T
	priority float64
}

// Queue does not deduplicate: the same item may be pushed several times with
// different priorities, and callers skip stale entries when they pop them.
type Queue[T any] struct {
	heap []entry[T]
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(item T, priority float64) {
	q.heap = append(q.heap, entry[T]{item: item, priority: priority})
	q.up(len(q.heap) - 1)
}

// Pop removes the entry with the smallest priority. Ties come out in an
// unspecified order. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, priority float64, ok bool) {
	n := len(q.heap)
	if n == 0 {
		return item, 0, false
	}

	top := q.heap[0]
	last := n - 1
	q.heap[0] = q.heap[last]
	q.heap[last] = entry[T]{}
	q.heap = q.heap[:last]
	if last > 0 {
		q.down(0)
	}
	return top.item, top.priority, true
}

func (q *Queue[T]) IsEmpty() bool {
	return len(q.heap) == 0
}

func (q *Queue[T]) Len() int {
	return len(q.heap)
}

func (q *Queue[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].priority <= q.heap[i].priority {
			return
		}
		q.heap[parent], q.heap[i] = q.heap[i], q.heap[parent]
		i = parent
	}
}

func (q *Queue[T]) down(i int) {
	n := len(q.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && q.heap[left].priority < q.heap[smallest].priority {
			smallest = left
		}
		if right < n && q.heap[right].priority < q.heap[smallest].priority {
			smallest = right
		}
		if smallest == i {
			return
		}
		q.heap[i], q.heap[smallest] = q.heap[smallest], q.heap[i]
		i = smallest
	}
}
