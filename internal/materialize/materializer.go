// Package materialize turns abstract candidate paths into concrete per-leg
// monies, resolving SELL legs whose fees depend on the chosen base amount
// by fixed-point iteration, and judging the residual against the tolerance
// window.
package materialize

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/internal/search"
	"github.com/p2pbook/pathfinder/pkg/types"
)

// Fixed-point controls for fee-bearing SELL legs.
const (
	maxRefineIterations = 16
)

// convergenceEpsilon is the relative error that counts as converged, 1e-6.
var convergenceEpsilon = decimal.New(1, -6)

// ErrRejected marks a candidate the materializer cannot realize: fees or
// bounds make it infeasible, the SELL refinement failed to converge, or the
// residual falls outside the window. The engine treats a rejection as "keep
// searching", not as a failure.
var ErrRejected = errors.New("candidate rejected")

// Leg is one materialized hop.
type Leg struct {
	From     string
	To       string
	Side     types.Side
	OrderID  string
	Spent    types.Money
	Received types.Money
	Fees     types.FeeBreakdown
}

// PathResult is a fully materialized path.
type PathResult struct {
	Candidate     *search.Candidate
	Legs          []Leg
	TotalSpent    types.Money
	TotalReceived types.Money
	Residual      decimal.Decimal
}

// Materializer walks candidate paths leg by leg.
type Materializer struct {
	window Window
}

// New builds a materializer over a tolerance window.
func New(window Window) *Materializer {
	return &Materializer{window: window}
}

// Materialize realizes the candidate for a requested gross spend in the
// source currency. Infeasible candidates return an error wrapping
// ErrRejected.
func (m *Materializer) Materialize(c *search.Candidate, requested types.Money) (*PathResult, error) {
	if len(c.Edges) == 0 {
		return nil, fmt.Errorf("%w: empty path", types.ErrInvalidInput)
	}
	if requested.Currency() != c.Edges[0].From {
		return nil, fmt.Errorf("%w: requested spend %s for path from %s", types.ErrInvalidInput, requested.Currency(), c.Edges[0].From)
	}
	if requested.Sign() <= 0 {
		return nil, fmt.Errorf("%w: requested spend %s must be positive", types.ErrInvalidInput, requested)
	}

	legs := make([]Leg, 0, len(c.Edges))
	current := requested
	for _, edge := range c.Edges {
		var (
			leg Leg
			err error
		)
		if edge.Side == types.SideBuy {
			leg, err = m.buyLeg(edge, current)
		} else {
			leg, err = m.sellLeg(edge, current)
		}
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
		current = leg.Received
	}

	last := c.Edges[len(c.Edges)-1]
	if current.Currency() != last.To {
		return nil, fmt.Errorf("%w: path ends in %s, received %s", types.ErrInvalidInput, last.To, current.Currency())
	}

	residual, ok, err := m.window.Allows(legs[0].Spent, requested)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: residual %s outside tolerance window", ErrRejected, residual)
	}

	return &PathResult{
		Candidate:     c,
		Legs:          legs,
		TotalSpent:    legs[0].Spent,
		TotalReceived: current,
		Residual:      residual,
	}, nil
}

// buyLeg crosses a BUY order: the traveller holds base and receives quote.
// The incoming amount is clamped into the order bounds and realigned to the
// bounds scale before quoting.
func (m *Materializer) buyLeg(edge search.PathEdge, current types.Money) (Leg, error) {
	order := edge.Order
	if current.Currency() != order.Pair.Base {
		return Leg{}, fmt.Errorf("%w: buy leg holds %s, order base is %s", types.ErrInvalidInput, current.Currency(), order.Pair.Base)
	}

	netBase, err := current.Clamp(order.Bounds.Min, order.Bounds.Max)
	if err != nil {
		return Leg{}, err
	}
	netBase = netBase.WithScale(order.Bounds.Scale())

	rawQuote, err := order.CalculateQuoteAmount(netBase)
	if err != nil {
		return Leg{}, err
	}

	var fees types.FeeBreakdown
	if order.Fees != nil {
		fees, err = order.Fees.Calculate(types.SideBuy, netBase, rawQuote)
		if err != nil {
			return Leg{}, err
		}
	}

	received := rawQuote
	if fees.QuoteFee != nil && !fees.QuoteFee.IsZero() {
		received, err = rawQuote.Sub(*fees.QuoteFee, rawQuote.Scale())
		if err != nil {
			return Leg{}, err
		}
	}
	if received.Sign() <= 0 {
		return Leg{}, fmt.Errorf("%w: buy leg on order %s yields %s", ErrRejected, order.ID, received)
	}

	spent, err := order.CalculateGrossBaseSpend(netBase, fees)
	if err != nil {
		return Leg{}, err
	}

	return Leg{
		From:     edge.From,
		To:       edge.To,
		Side:     types.SideBuy,
		OrderID:  order.ID,
		Spent:    spent,
		Received: received,
		Fees:     fees,
	}, nil
}

// sellLeg crosses a SELL order: the traveller holds quote and receives
// base. With a fee policy the base amount that makes the effective quote
// equal the held amount is found by fixed-point iteration, since the fees
// are a function of the unknown base.
func (m *Materializer) sellLeg(edge search.PathEdge, current types.Money) (Leg, error) {
	order := edge.Order
	if current.Currency() != order.Pair.Quote {
		return Leg{}, fmt.Errorf("%w: sell leg holds %s, order quote is %s", types.ErrInvalidInput, current.Currency(), order.Pair.Quote)
	}

	if order.Fees == nil {
		received, err := order.Rate.Invert().Convert(current)
		if err != nil {
			return Leg{}, err
		}
		if !order.Bounds.Contains(received) {
			return Leg{}, fmt.Errorf("%w: sell leg base %s outside bounds of order %s", ErrRejected, received, order.ID)
		}
		return Leg{
			From:     edge.From,
			To:       edge.To,
			Side:     types.SideSell,
			OrderID:  order.ID,
			Spent:    current,
			Received: received,
		}, nil
	}

	base, err := m.refineSellBase(order, current)
	if err != nil {
		return Leg{}, err
	}

	rawQuote, err := order.CalculateQuoteAmount(base)
	if err != nil {
		return Leg{}, err
	}
	fees, err := order.Fees.Calculate(types.SideSell, base, rawQuote)
	if err != nil {
		return Leg{}, err
	}

	if !order.Bounds.Contains(base) {
		return Leg{}, fmt.Errorf("%w: refined base %s outside bounds of order %s", ErrRejected, base, order.ID)
	}

	received := base
	if fees.BaseFee != nil && !fees.BaseFee.IsZero() {
		received, err = base.Sub(*fees.BaseFee, base.Scale())
		if err != nil {
			return Leg{}, err
		}
	}
	if received.Sign() <= 0 {
		return Leg{}, fmt.Errorf("%w: sell leg on order %s yields %s", ErrRejected, order.ID, received)
	}

	return Leg{
		From:     edge.From,
		To:       edge.To,
		Side:     types.SideSell,
		OrderID:  order.ID,
		Spent:    current,
		Received: received,
		Fees:     fees,
	}, nil
}

// refineSellBase iterates base ← base × target/actual until the effective
// quote (raw quote minus quote fee) matches the held amount within the
// convergence epsilon. The update is a contraction for fees monotone in
// base; sixteen iterations bound the walk.
func (m *Materializer) refineSellBase(order *types.Order, target types.Money) (types.Money, error) {
	base, err := order.Rate.Invert().Convert(target)
	if err != nil {
		return types.Money{}, err
	}
	base = base.WithScale(order.Bounds.Scale())

	for i := 0; i < maxRefineIterations; i++ {
		rawQuote, err := order.CalculateQuoteAmount(base)
		if err != nil {
			return types.Money{}, err
		}
		fees, err := order.Fees.Calculate(types.SideSell, base, rawQuote)
		if err != nil {
			return types.Money{}, err
		}
		effective := rawQuote
		if fees.QuoteFee != nil && !fees.QuoteFee.IsZero() {
			effective, err = rawQuote.Sub(*fees.QuoteFee, rawQuote.Scale())
			if err != nil {
				return types.Money{}, err
			}
		}

		if effective.IsZero() || effective.Sign() != target.Sign() {
			return types.Money{}, fmt.Errorf("%w: sell refinement on order %s hit %s effective quote", ErrRejected, order.ID, effective)
		}

		diff := effective.Amount().Sub(target.Amount()).Abs()
		relative := diff.DivRound(target.Amount().Abs(), types.ScaleCost)
		if relative.Cmp(convergenceEpsilon) <= 0 {
			return base, nil
		}

		ratio := target.Amount().DivRound(effective.Amount(), types.ScaleWorking)
		base = base.MulDec(ratio, order.Bounds.Scale())
	}
	return types.Money{}, fmt.Errorf("%w: sell refinement on order %s did not converge in %d iterations", ErrRejected, order.ID, maxRefineIterations)
}
