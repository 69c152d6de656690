package orderbook

import (
	"fmt"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// Fill is what crossing an order at a given base amount looks like before
// any quote-side fee is applied: the net base, the raw quote, and the gross
// base inclusive of base-denominated fees.
type Fill struct {
	NetBase   types.Money
	Quote     types.Money
	GrossBase types.Money
}

// FillEvaluator prices prospective fills. Purely functional; the graph
// builder calls it at both order bounds to derive capacity intervals.
type FillEvaluator struct{}

// NewFillEvaluator returns an evaluator.
func NewFillEvaluator() *FillEvaluator { return &FillEvaluator{} }

// Evaluate computes the fill triple for the order at baseAmount. The amount
// must be denominated in the order's base currency.
func (e *FillEvaluator) Evaluate(o *types.Order, baseAmount types.Money) (Fill, error) {
	if baseAmount.Currency() != o.Pair.Base {
		return Fill{}, fmt.Errorf("%w: fill amount %s for pair %s", types.ErrInvalidInput, baseAmount.Currency(), o.Pair)
	}
	quote, err := o.CalculateQuoteAmount(baseAmount)
	if err != nil {
		return Fill{}, err
	}
	var fees types.FeeBreakdown
	if o.Fees != nil {
		fees, err = o.Fees.Calculate(o.Side, baseAmount, quote)
		if err != nil {
			return Fill{}, err
		}
	}
	gross, err := o.CalculateGrossBaseSpend(baseAmount, fees)
	if err != nil {
		return Fill{}, err
	}
	return Fill{NetBase: baseAmount, Quote: quote, GrossBase: gross}, nil
}
