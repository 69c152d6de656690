package search

import (
	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// edgeFeasibleRange intersects an incoming spend range with the edge's
// aggregated source-side interval. ok is false when the edge cannot carry
// any amount in the range, which prunes the branch.
func edgeFeasibleRange(e *graph.Edge, r graph.Interval) (graph.Interval, bool) {
	return r.Intersect(e.SourceInterval())
}

// convertEdgeAmount maps a source-side amount across the edge by affine
// interpolation between the source and target capacity intervals: the
// source minimum maps to the target minimum, the maximum to the maximum,
// and everything between scales linearly. The input is clamped into the
// source interval first and the output is rounded HALF-UP at the target
// scale and clamped into the target interval.
func convertEdgeAmount(e *graph.Edge, amount types.Money) (types.Money, error) {
	src := e.SourceInterval()
	tgt := e.TargetInterval()

	clamped, err := amount.Clamp(src.Min, src.Max)
	if err != nil {
		return types.Money{}, err
	}
	if src.IsPoint() {
		return tgt.Min, nil
	}

	span := src.Max.Amount().Sub(src.Min.Amount())
	ratio := tgt.Max.Amount().Sub(tgt.Min.Amount()).DivRound(span, types.ScaleRatio)
	offset := clamped.Amount().Sub(src.Min.Amount()).Mul(ratio).Round(types.ScaleWorking)

	scale := tgt.Min.Scale()
	if tgt.Max.Scale() > scale {
		scale = tgt.Max.Scale()
	}
	out, err := types.MoneyFromDecimal(tgt.Currency(), tgt.Min.Amount().Add(offset), scale)
	if err != nil {
		return types.Money{}, err
	}
	return out.Clamp(tgt.Min, tgt.Max)
}

// convertRange maps a feasible source-side range to the target side by
// converting both endpoints. The affine map is monotone, so endpoint order
// is preserved.
func convertRange(e *graph.Edge, r graph.Interval) (graph.Interval, error) {
	lo, err := convertEdgeAmount(e, r.Min)
	if err != nil {
		return graph.Interval{}, err
	}
	hi, err := convertEdgeAmount(e, r.Max)
	if err != nil {
		return graph.Interval{}, err
	}
	return graph.NewInterval(lo, hi)
}

// one is the unit cost/product seed.
var one = decimal.New(1, 0)
