package graph

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// FillEvaluator prices an order fill at a base amount. Satisfied by
// orderbook.FillEvaluator.
type FillEvaluator interface {
	Evaluate(o *types.Order, baseAmount types.Money) (orderbook.Fill, error)
}

// Builder turns orders into capacitated edges by evaluating each order's
// fill at both bounds.
type Builder struct {
	eval FillEvaluator
}

// NewBuilder builds a Builder over a fill evaluator.
func NewBuilder(eval FillEvaluator) *Builder {
	return &Builder{eval: eval}
}

// Build produces the graph for the given orders. Edge insertion order
// within a node follows order iteration order; search results do not depend
// on it.
func (b *Builder) Build(orders []*types.Order) (*Graph, error) {
	g := NewGraph()
	for _, o := range orders {
		e, err := b.buildEdge(o)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	return g, nil
}

func (b *Builder) buildEdge(o *types.Order) (*Edge, error) {
	minFill, err := b.eval.Evaluate(o, o.Bounds.Min)
	if err != nil {
		return nil, err
	}
	maxFill, err := b.eval.Evaluate(o, o.Bounds.Max)
	if err != nil {
		return nil, err
	}

	baseCap, err := NewInterval(minFill.NetBase, maxFill.NetBase)
	if err != nil {
		return nil, err
	}
	quoteCap, err := NewInterval(minFill.Quote, maxFill.Quote)
	if err != nil {
		return nil, err
	}
	grossCap, err := NewInterval(minFill.GrossBase, maxFill.GrossBase)
	if err != nil {
		return nil, err
	}

	segments, err := buildSegments(baseCap, quoteCap, grossCap)
	if err != nil {
		return nil, err
	}

	return &Edge{
		From:              o.From(),
		To:                o.To(),
		Side:              o.Side,
		Order:             o,
		Rate:              o.Rate,
		BaseCapacity:      baseCap,
		QuoteCapacity:     quoteCap,
		GrossBaseCapacity: grossCap,
		Segments:          segments,
	}, nil
}

// buildSegments splits an edge into at most two segments: the mandatory
// minimum fill (present when the base minimum is non-zero) and the
// discretionary remainder (present when max exceeds min). When neither
// applies a single zero segment keeps segment iteration non-empty.
func buildSegments(base, quote, gross Interval) ([]Segment, error) {
	var segs []Segment

	if !base.Min.IsZero() {
		segs = append(segs, Segment{
			Mandatory: true,
			Base:      Interval{Min: base.Min, Max: base.Min},
			Quote:     Interval{Min: quote.Min, Max: quote.Min},
			GrossBase: Interval{Min: gross.Min, Max: gross.Min},
		})
	}

	if base.Max.Amount().Cmp(base.Min.Amount()) != 0 {
		rem, err := remainderSegment(base, quote, gross)
		if err != nil {
			return nil, err
		}
		segs = append(segs, rem)
	}

	if len(segs) == 0 {
		segs = append(segs, Segment{
			Base:      pointInterval(base.Currency(), base.Min.Scale()),
			Quote:     pointInterval(quote.Currency(), quote.Min.Scale()),
			GrossBase: pointInterval(gross.Currency(), gross.Min.Scale()),
		})
	}
	return segs, nil
}

func remainderSegment(base, quote, gross Interval) (Segment, error) {
	baseSpan, err := base.Max.Sub(base.Min, base.Max.Scale())
	if err != nil {
		return Segment{}, err
	}
	quoteSpan, err := quote.Max.Sub(quote.Min, quote.Max.Scale())
	if err != nil {
		return Segment{}, err
	}
	grossSpan, err := gross.Max.Sub(gross.Min, gross.Max.Scale())
	if err != nil {
		return Segment{}, err
	}
	return Segment{
		Base:      Interval{Min: zero(base.Currency(), base.Max.Scale()), Max: baseSpan},
		Quote:     Interval{Min: zero(quote.Currency(), quote.Max.Scale()), Max: quoteSpan},
		GrossBase: Interval{Min: zero(gross.Currency(), gross.Max.Scale()), Max: grossSpan},
	}, nil
}

func zero(currency string, scale int32) types.Money {
	m, _ := types.MoneyFromDecimal(currency, decimal.Zero, scale)
	return m
}

func pointInterval(currency string, scale int32) Interval {
	z := zero(currency, scale)
	return Interval{Min: z, Max: z}
}
