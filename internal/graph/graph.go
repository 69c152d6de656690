// Package graph models the order book as a directed capacitated graph:
// currencies are nodes, orders are edges annotated with capacity intervals
// and fill segments.
package graph

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// Interval is an inclusive money range with Min ≤ Max in one currency.
type Interval struct {
	Min types.Money
	Max types.Money
}

// NewInterval validates currency agreement and ordering.
func NewInterval(min, max types.Money) (Interval, error) {
	if min.Currency() != max.Currency() {
		return Interval{}, fmt.Errorf("%w: interval currency mismatch %s vs %s", types.ErrInvalidInput, min.Currency(), max.Currency())
	}
	if min.Amount().Cmp(max.Amount()) > 0 {
		return Interval{}, fmt.Errorf("%w: interval min %s exceeds max %s", types.ErrInvalidInput, min, max)
	}
	return Interval{Min: min, Max: max}, nil
}

// Currency returns the interval currency.
func (i Interval) Currency() string { return i.Min.Currency() }

// Contains reports whether m lies within the interval.
func (i Interval) Contains(m types.Money) bool {
	if m.Currency() != i.Currency() {
		return false
	}
	return m.Amount().Cmp(i.Min.Amount()) >= 0 && m.Amount().Cmp(i.Max.Amount()) <= 0
}

// IsPoint reports whether Min and Max coincide.
func (i Interval) IsPoint() bool {
	return i.Min.Amount().Cmp(i.Max.Amount()) == 0
}

// Intersect returns the overlap of two same-currency intervals. ok is false
// when they do not overlap.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if i.Currency() != o.Currency() {
		return Interval{}, false
	}
	lo, hi := i.Min, i.Max
	if o.Min.Amount().Cmp(lo.Amount()) > 0 {
		lo = o.Min
	}
	if o.Max.Amount().Cmp(hi.Amount()) < 0 {
		hi = o.Max
	}
	if lo.Amount().Cmp(hi.Amount()) > 0 {
		return Interval{}, false
	}
	return Interval{Min: lo, Max: hi}, true
}

// Segment is one fillable slice of an edge. A mandatory segment is the
// order's minimum fill and forces spends across the edge to clear its
// floor; an optional segment may contribute anything from zero up to its
// ceiling.
type Segment struct {
	Mandatory bool
	Base      Interval
	Quote     Interval
	GrossBase Interval
}

// Edge is one order viewed as a directed conversion from one currency node
// to another, with interval capacities on all three amount axes.
type Edge struct {
	From              string
	To                string
	Side              types.Side
	Order             *types.Order
	Rate              types.ExchangeRate
	BaseCapacity      Interval
	QuoteCapacity     Interval
	GrossBaseCapacity Interval
	Segments          []Segment
}

// sourceSegment selects the side of a segment a traveller pays with: gross
// base when crossing a BUY order, quote when crossing a SELL order.
func (e *Edge) sourceSegment(s Segment) Interval {
	if e.Side == types.SideBuy {
		return s.GrossBase
	}
	return s.Quote
}

// targetSegment selects the side the traveller receives.
func (e *Edge) targetSegment(s Segment) Interval {
	if e.Side == types.SideBuy {
		return s.Quote
	}
	return s.Base
}

func sumSegments(segs []Segment, pick func(Segment) Interval) Interval {
	first := pick(segs[0])
	floor := decimal.Zero
	ceil := decimal.Zero
	currency := first.Currency()
	scale := first.Min.Scale()
	for _, s := range segs {
		iv := pick(s)
		if s.Mandatory {
			floor = floor.Add(iv.Min.Amount())
		}
		ceil = ceil.Add(iv.Max.Amount())
		if iv.Max.Scale() > scale {
			scale = iv.Max.Scale()
		}
	}
	lo, _ := types.MoneyFromDecimal(currency, floor, scale)
	hi, _ := types.MoneyFromDecimal(currency, ceil, scale)
	return Interval{Min: lo, Max: hi}
}

// SourceInterval aggregates the feasible spend interval across segments:
// mandatory minima add a floor, every segment adds to the ceiling.
func (e *Edge) SourceInterval() Interval {
	return sumSegments(e.Segments, e.sourceSegment)
}

// TargetInterval aggregates the receivable interval the same way.
func (e *Edge) TargetInterval() Interval {
	return sumSegments(e.Segments, e.targetSegment)
}

// BaseToQuoteRatio is the edge's raw quote-per-base ratio at capacity:
// quote max over base max, the base being gross for BUY and net for SELL.
// A zero-capacity edge has ratio zero and is unusable.
func (e *Edge) BaseToQuoteRatio() decimal.Decimal {
	baseMax := e.BaseCapacity.Max.Amount()
	if e.Side == types.SideBuy {
		baseMax = e.GrossBaseCapacity.Max.Amount()
	}
	if baseMax.IsZero() {
		return decimal.Zero
	}
	return e.QuoteCapacity.Max.Amount().DivRound(baseMax, types.ScaleRatio)
}

// ConversionRate is the effective target-per-source rate a traveller sees:
// the base-to-quote ratio for BUY edges, its reciprocal for SELL edges.
func (e *Edge) ConversionRate() decimal.Decimal {
	ratio := e.BaseToQuoteRatio()
	if e.Side == types.SideBuy {
		return ratio
	}
	if ratio.IsZero() {
		return decimal.Zero
	}
	return decimal.New(1, 0).DivRound(ratio, types.ScaleRatio)
}

// Node is a currency vertex and its outgoing edges in insertion order.
type Node struct {
	Currency string
	Edges    []*Edge
}

// Graph is the adjacency map. Every currency referenced by any edge has a
// node entry, created lazily as edges are added.
type Graph struct {
	nodes map[string]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Has reports whether the currency exists as a node.
func (g *Graph) Has(currency string) bool {
	_, ok := g.nodes[currency]
	return ok
}

// Node returns the node for a currency.
func (g *Graph) Node(currency string) (*Node, bool) {
	n, ok := g.nodes[currency]
	return n, ok
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) ensure(currency string) *Node {
	if n, ok := g.nodes[currency]; ok {
		return n
	}
	n := &Node{Currency: currency}
	g.nodes[currency] = n
	return n
}

// AddEdge inserts an edge, creating both endpoint nodes as needed.
func (g *Graph) AddEdge(e *Edge) error {
	if e.From == e.To {
		return fmt.Errorf("%w: self-loop edge on %s", types.ErrInvalidInput, e.From)
	}
	from := g.ensure(e.From)
	g.ensure(e.To)
	from.Edges = append(from.Edges, e)
	return nil
}
