package types

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Canonical scales. Costs, rate products and residuals are compared at
// ScaleCost digits; intermediate ratio and product computation carries the
// extra slack so the final HALF-UP rounding is the only lossy step.
const (
	ScaleCost    int32 = 18
	ScaleRatio   int32 = ScaleCost + 4
	ScaleWorking int32 = ScaleCost + 6
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3,12}$`)

// ValidCurrency reports whether code is an acceptable currency identifier.
// Codes are 3 to 12 uppercase ASCII letters; longer p2p asset tickers are
// allowed alongside ISO codes.
func ValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// Money is an immutable amount in a single currency, held as an
// arbitrary-precision decimal with an explicit scale. All arithmetic takes
// the result scale explicitly and rounds HALF-UP.
type Money struct {
	currency string
	amount   decimal.Decimal
	scale    int32
}

// NewMoney parses amount and returns it as Money rounded to scale.
func NewMoney(currency, amount string, scale int32) (Money, error) {
	if !ValidCurrency(currency) {
		return Money{}, fmt.Errorf("%w: currency %q", ErrInvalidInput, currency)
	}
	if scale < 0 {
		return Money{}, fmt.Errorf("%w: negative scale %d", ErrInvalidInput, scale)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: amount %q: %v", ErrInvalidInput, amount, err)
	}
	return Money{currency: currency, amount: d.Round(scale), scale: scale}, nil
}

// MustMoney is NewMoney that panics on error. Fixture and test helper.
func MustMoney(currency, amount string, scale int32) Money {
	m, err := NewMoney(currency, amount, scale)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal wraps an already-parsed decimal, rounding it to scale.
func MoneyFromDecimal(currency string, amount decimal.Decimal, scale int32) (Money, error) {
	if !ValidCurrency(currency) {
		return Money{}, fmt.Errorf("%w: currency %q", ErrInvalidInput, currency)
	}
	if scale < 0 {
		return Money{}, fmt.Errorf("%w: negative scale %d", ErrInvalidInput, scale)
	}
	return Money{currency: currency, amount: amount.Round(scale), scale: scale}, nil
}

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

// Amount returns the decimal value.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Scale returns the scale the amount is held at.
func (m Money) Scale() int32 { return m.scale }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Sign returns -1, 0 or 1.
func (m Money) Sign() int { return m.amount.Sign() }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: currency mismatch %s vs %s", ErrInvalidInput, m.currency, o.currency)
	}
	return nil
}

// Add returns m+o at the given result scale.
func (m Money) Add(o Money, scale int32) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{currency: m.currency, amount: m.amount.Add(o.amount).Round(scale), scale: scale}, nil
}

// Sub returns m-o at the given result scale.
func (m Money) Sub(o Money, scale int32) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{currency: m.currency, amount: m.amount.Sub(o.amount).Round(scale), scale: scale}, nil
}

// MulDec returns m scaled by factor at the given result scale.
func (m Money) MulDec(factor decimal.Decimal, scale int32) Money {
	return Money{currency: m.currency, amount: m.amount.Mul(factor).Round(scale), scale: scale}
}

// DivDec returns m divided by divisor at the given result scale.
func (m Money) DivDec(divisor decimal.Decimal, scale int32) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrPrecisionViolation)
	}
	return Money{currency: m.currency, amount: m.amount.DivRound(divisor, scale), scale: scale}, nil
}

// Cmp compares two amounts of the same currency: -1 if m < o, 0 if equal,
// 1 if m > o. The comparison is exact; scales do not matter.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.amount.Cmp(o.amount), nil
}

// WithScale re-rounds the amount HALF-UP to the given scale.
func (m Money) WithScale(scale int32) Money {
	return Money{currency: m.currency, amount: m.amount.Round(scale), scale: scale}
}

// Neg returns the negated amount at the same scale.
func (m Money) Neg() Money {
	return Money{currency: m.currency, amount: m.amount.Neg(), scale: m.scale}
}

// Abs returns the absolute amount at the same scale.
func (m Money) Abs() Money {
	return Money{currency: m.currency, amount: m.amount.Abs(), scale: m.scale}
}

// Clamp restricts m into [lo, hi]. All three must share a currency.
func (m Money) Clamp(lo, hi Money) (Money, error) {
	if err := m.sameCurrency(lo); err != nil {
		return Money{}, err
	}
	if err := m.sameCurrency(hi); err != nil {
		return Money{}, err
	}
	if m.amount.Cmp(lo.amount) < 0 {
		return lo, nil
	}
	if m.amount.Cmp(hi.amount) > 0 {
		return hi, nil
	}
	return m, nil
}

// String renders the amount at its scale, e.g. "100.000 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.scale), m.currency)
}

// CanonicalString renders the amount at the canonical comparison scale.
// Used wherever Money feeds a signature or an ordering key.
func (m Money) CanonicalString() string {
	return m.amount.StringFixed(ScaleCost) + " " + m.currency
}
