package search

import "container/heap"

// stateQueue is the frontier priority queue: lowest cost first, equal costs
// broken toward the later insertion. The final result ordering re-sorts by
// insertion ascending, so the inverted tie-break is observable only through
// guard-breach partial results.
type stateQueue []*searchState

func (q stateQueue) Len() int { return len(q) }

func (q stateQueue) Less(i, j int) bool {
	if c := q[i].cost.Cmp(q[j].cost); c != 0 {
		return c < 0
	}
	return q[i].insertion > q[j].insertion
}

func (q stateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *stateQueue) Push(x any) { *q = append(*q, x.(*searchState)) }

func (q *stateQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

func newStateQueue() *stateQueue {
	q := &stateQueue{}
	heap.Init(q)
	return q
}

func (q *stateQueue) push(s *searchState) { heap.Push(q, s) }

func (q *stateQueue) pop() *searchState { return heap.Pop(q).(*searchState) }
