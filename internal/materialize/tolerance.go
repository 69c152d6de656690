package materialize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// Residual is the relative deviation |actual - requested| / requested at
// the canonical scale. A zero request has residual zero by definition.
func Residual(actual, requested types.Money) (decimal.Decimal, error) {
	if actual.Currency() != requested.Currency() {
		return decimal.Zero, fmt.Errorf("%w: residual currencies %s vs %s", types.ErrInvalidInput, actual.Currency(), requested.Currency())
	}
	if requested.IsZero() {
		return decimal.Zero, nil
	}
	diff := actual.Amount().Sub(requested.Amount()).Abs()
	return diff.DivRound(requested.Amount().Abs(), types.ScaleCost), nil
}

// Window is the acceptable residual band: undershoots are checked against
// Min, overshoots against Max. Equality always passes.
type Window struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewWindow parses both bounds as decimals in [0, 1).
func NewWindow(min, max string) (Window, error) {
	lo, err := parseBound(min)
	if err != nil {
		return Window{}, err
	}
	hi, err := parseBound(max)
	if err != nil {
		return Window{}, err
	}
	return Window{Min: lo, Max: hi}, nil
}

func parseBound(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: tolerance bound %q: %v", types.ErrInvalidInput, s, err)
	}
	if d.Sign() < 0 || d.Cmp(decimal.New(1, 0)) >= 0 {
		return decimal.Zero, fmt.Errorf("%w: tolerance bound %s outside [0, 1)", types.ErrInvalidInput, d)
	}
	return d, nil
}

// Allows reports whether the actual gross spend sits within the window
// around the requested spend, and returns the signed-selection residual it
// judged.
func (w Window) Allows(actual, requested types.Money) (decimal.Decimal, bool, error) {
	residual, err := Residual(actual, requested)
	if err != nil {
		return decimal.Zero, false, err
	}
	cmp := actual.Amount().Cmp(requested.Amount())
	switch {
	case cmp < 0 && residual.Cmp(w.Min) > 0:
		return residual, false, nil
	case cmp > 0 && residual.Cmp(w.Max) > 0:
		return residual, false, nil
	default:
		return residual, true, nil
	}
}
