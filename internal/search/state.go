package search

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// PathEdge is one hop of a discovered path: the order crossed, the raw
// rate, and the effective target-per-source conversion rate (always
// strictly positive; the reciprocal ratio for SELL hops).
type PathEdge struct {
	From           string
	To             string
	Order          *types.Order
	Rate           types.ExchangeRate
	Side           types.Side
	ConversionRate decimal.Decimal
}

// searchState is one frontier entry of the exploration: a node plus the
// accumulated cost/product, the hops and path so far, the surviving spend
// range, the converted desired amount, and the cycle-blocking visited set.
type searchState struct {
	node        string
	cost        decimal.Decimal
	product     decimal.Decimal
	hops        int
	path        []PathEdge
	amountRange *graph.Interval
	desired     *types.Money
	visited     map[string]struct{}
	insertion   int64
}

func (s *searchState) visitedCopyWith(node string) map[string]struct{} {
	next := make(map[string]struct{}, len(s.visited)+1)
	for k := range s.visited {
		next[k] = struct{}{}
	}
	next[node] = struct{}{}
	return next
}

// stateSignature canonicalizes the (range, desired) refinement of a state.
// States with different signatures represent different subproblems and are
// never compared for dominance. Nil components render as "null".
func stateSignature(r *graph.Interval, desired *types.Money) string {
	var b strings.Builder
	b.WriteString("r:")
	if r == nil {
		b.WriteString("null")
	} else {
		b.WriteString(r.Min.CanonicalString())
		b.WriteString("..")
		b.WriteString(r.Max.CanonicalString())
	}
	b.WriteString("|d:")
	if desired == nil {
		b.WriteString("null")
	} else {
		b.WriteString(desired.CanonicalString())
	}
	return b.String()
}

// stateRecord is the dominance bookkeeping entry kept per node.
type stateRecord struct {
	cost      decimal.Decimal
	hops      int
	signature string
}

// stateRegistry stores records per node. Dominance only applies between
// records sharing a signature: a record dominates a newcomer when its cost
// and hops are both no larger.
type stateRegistry map[string][]stateRecord

// isDominated reports whether an existing same-signature record at node is
// at least as good on both axes.
func (reg stateRegistry) isDominated(node string, cost decimal.Decimal, hops int, signature string) bool {
	for _, rec := range reg[node] {
		if rec.signature != signature {
			continue
		}
		if rec.cost.Cmp(cost) <= 0 && rec.hops <= hops {
			return true
		}
	}
	return false
}

// hasSignature reports whether any record at node carries the signature.
func (reg stateRegistry) hasSignature(node, signature string) bool {
	for _, rec := range reg[node] {
		if rec.signature == signature {
			return true
		}
	}
	return false
}

// register evicts same-signature records the newcomer dominates and appends
// the newcomer. The return value is the net change to the live-state count:
// one minus the evictions.
func (reg stateRegistry) register(node string, cost decimal.Decimal, hops int, signature string) int {
	records := reg[node]
	kept := records[:0]
	evicted := 0
	for _, rec := range records {
		if rec.signature == signature && cost.Cmp(rec.cost) <= 0 && hops <= rec.hops {
			evicted++
			continue
		}
		kept = append(kept, rec)
	}
	reg[node] = append(kept, stateRecord{cost: cost, hops: hops, signature: signature})
	return 1 - evicted
}
