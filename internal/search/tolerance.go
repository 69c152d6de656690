package search

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/p2pbook/pathfinder/pkg/types"
)

// maxTolerance is the clamp ceiling: eighteen nines after the point keeps
// the amplifier finite at the canonical scale.
var maxTolerance = decimal.RequireFromString("0." + strings.Repeat("9", 18))

// Tolerance is a parsed cost-tolerance value and its pruning amplifier
// 1/(1-t). A zero tolerance is the pure-exact regime: no amplification.
type Tolerance struct {
	value     decimal.Decimal
	amplifier decimal.Decimal
}

// ParseTolerance validates t as a decimal in [0, 1), clamps it to the
// ceiling, and precomputes the amplifier at the canonical scale.
func ParseTolerance(t string) (Tolerance, error) {
	d, err := decimal.NewFromString(t)
	if err != nil {
		return Tolerance{}, fmt.Errorf("%w: tolerance %q: %v", types.ErrInvalidInput, t, err)
	}
	if d.Sign() < 0 || d.Cmp(decimal.New(1, 0)) >= 0 {
		return Tolerance{}, fmt.Errorf("%w: tolerance %s outside [0, 1)", types.ErrInvalidInput, d)
	}
	if d.Cmp(maxTolerance) > 0 {
		d = maxTolerance
	}
	amp := decimal.New(1, 0)
	if d.Sign() > 0 {
		amp = decimal.New(1, 0).DivRound(decimal.New(1, 0).Sub(d), types.ScaleCost)
	}
	return Tolerance{value: d, amplifier: amp}, nil
}

// Value returns the clamped tolerance.
func (t Tolerance) Value() decimal.Decimal { return t.value }

// Amplifier returns 1/(1-t), or exactly 1 in the exact regime.
func (t Tolerance) Amplifier() decimal.Decimal { return t.amplifier }

// HasTolerance reports whether any amplification applies.
func (t Tolerance) HasTolerance() bool { return t.value.Sign() > 0 }

// MaxAllowedCost amplifies a best-known cost into the pruning ceiling.
func (t Tolerance) MaxAllowedCost(best decimal.Decimal) decimal.Decimal {
	if !t.HasTolerance() {
		return best
	}
	return best.Mul(t.amplifier).Round(types.ScaleCost)
}
