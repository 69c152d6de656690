package search

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// Candidate is a terminal-state snapshot: a complete path from source to
// target with its accumulated cost and product at the canonical scale.
type Candidate struct {
	Cost        decimal.Decimal
	Product     decimal.Decimal
	Hops        int
	Edges       []PathEdge
	AmountRange *graph.Interval
	Desired     *types.Money
}

// RouteSignature renders the node chain, e.g. "EUR->USD->JPY".
func (c *Candidate) RouteSignature() string {
	if len(c.Edges) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.Edges[0].From)
	for _, e := range c.Edges {
		b.WriteString("->")
		b.WriteString(e.To)
	}
	return b.String()
}

// dedupKey extends the route signature with the leg order IDs, so distinct
// orders over the same currency chain stay distinct results.
func (c *Candidate) dedupKey() string {
	var b strings.Builder
	b.WriteString(c.RouteSignature())
	for _, e := range c.Edges {
		b.WriteByte('|')
		b.WriteString(e.Order.ID)
	}
	return b.String()
}

// PathOrderKey is what ordering strategies compare.
type PathOrderKey struct {
	Cost           decimal.Decimal
	Hops           int
	RouteSignature string
	Insertion      int64
}

// OrderStrategy ranks final results. Compare returns a negative, zero or
// positive value as a sorts before, with, or after b.
type OrderStrategy interface {
	Compare(a, b PathOrderKey) int
}

// DefaultOrderStrategy orders by cost ascending at the canonical scale,
// then hops ascending, route signature lexicographically, and insertion
// order ascending.
type DefaultOrderStrategy struct{}

// Compare implements OrderStrategy.
func (DefaultOrderStrategy) Compare(a, b PathOrderKey) int {
	if c := a.Cost.Cmp(b.Cost); c != 0 {
		return c
	}
	if a.Hops != b.Hops {
		if a.Hops < b.Hops {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.RouteSignature, b.RouteSignature); c != 0 {
		return c
	}
	switch {
	case a.Insertion < b.Insertion:
		return -1
	case a.Insertion > b.Insertion:
		return 1
	default:
		return 0
	}
}

// resultEntry pairs a candidate with its insertion order.
type resultEntry struct {
	candidate *Candidate
	insertion int64
}

// resultHeap retains the K best candidates by (cost asc, hops asc,
// insertion asc). Internally it is a max-heap on that tuple: the root is
// the worst retained entry and is evicted on overflow.
type resultHeap struct {
	entries []resultEntry
	limit   int
}

func newResultHeap(limit int) *resultHeap {
	h := &resultHeap{limit: limit}
	heap.Init(h)
	return h
}

func (h *resultHeap) Len() int { return len(h.entries) }

func (h *resultHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if c := a.candidate.Cost.Cmp(b.candidate.Cost); c != 0 {
		return c > 0
	}
	if a.candidate.Hops != b.candidate.Hops {
		return a.candidate.Hops > b.candidate.Hops
	}
	return a.insertion > b.insertion
}

func (h *resultHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *resultHeap) Push(x any) { h.entries = append(h.entries, x.(resultEntry)) }

func (h *resultHeap) Pop() any {
	old := h.entries
	n := len(old)
	it := old[n-1]
	h.entries = old[:n-1]
	return it
}

// add inserts a candidate, evicting the worst retained entry when the heap
// would exceed its limit.
func (h *resultHeap) add(c *Candidate, insertion int64) {
	heap.Push(h, resultEntry{candidate: c, insertion: insertion})
	if len(h.entries) > h.limit {
		heap.Pop(h)
	}
}

// drain empties the heap in no particular order; finalization re-sorts.
func (h *resultHeap) drain() []resultEntry {
	out := h.entries
	h.entries = nil
	return out
}

// finalize sorts drained entries with the ordering strategy, suppresses
// duplicates keeping the first occurrence, and drops entries outside the
// tolerance envelope around the final best cost.
func finalize(entries []resultEntry, strategy OrderStrategy, tol Tolerance) []*Candidate {
	if len(entries) == 0 {
		return nil
	}

	best := entries[0].candidate.Cost
	for _, e := range entries[1:] {
		if e.candidate.Cost.Cmp(best) < 0 {
			best = e.candidate.Cost
		}
	}
	ceiling := tol.MaxAllowedCost(best)

	keys := make([]PathOrderKey, len(entries))
	for i, e := range entries {
		keys[i] = PathOrderKey{
			Cost:           e.candidate.Cost,
			Hops:           e.candidate.Hops,
			RouteSignature: e.candidate.RouteSignature(),
			Insertion:      e.insertion,
		}
	}

	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return strategy.Compare(keys[idx[a]], keys[idx[b]]) < 0
	})

	seen := make(map[string]struct{}, len(entries))
	out := make([]*Candidate, 0, len(entries))
	for _, i := range idx {
		c := entries[i].candidate
		if c.Cost.Cmp(ceiling) > 0 {
			continue
		}
		key := c.dedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
