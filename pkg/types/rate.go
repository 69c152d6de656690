package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExchangeRate converts base-currency amounts into quote-currency amounts.
// Scale is the result scale for conversions, not the precision the rate is
// held at: the rate itself is kept exact so Invert round-trips cleanly.
type ExchangeRate struct {
	base  string
	quote string
	rate  decimal.Decimal
	scale int32
}

// NewExchangeRate parses and validates a rate. The rate must be strictly
// positive.
func NewExchangeRate(base, quote, rate string, scale int32) (ExchangeRate, error) {
	if !ValidCurrency(base) {
		return ExchangeRate{}, fmt.Errorf("%w: base currency %q", ErrInvalidInput, base)
	}
	if !ValidCurrency(quote) {
		return ExchangeRate{}, fmt.Errorf("%w: quote currency %q", ErrInvalidInput, quote)
	}
	if scale < 0 {
		return ExchangeRate{}, fmt.Errorf("%w: negative scale %d", ErrInvalidInput, scale)
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("%w: rate %q: %v", ErrInvalidInput, rate, err)
	}
	if d.Sign() <= 0 {
		return ExchangeRate{}, fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidInput, d)
	}
	return ExchangeRate{base: base, quote: quote, rate: d, scale: scale}, nil
}

// MustExchangeRate is NewExchangeRate that panics on error.
func MustExchangeRate(base, quote, rate string, scale int32) ExchangeRate {
	r, err := NewExchangeRate(base, quote, rate, scale)
	if err != nil {
		panic(err)
	}
	return r
}

// Base returns the base currency.
func (r ExchangeRate) Base() string { return r.base }

// Quote returns the quote currency.
func (r ExchangeRate) Quote() string { return r.quote }

// Rate returns the decimal rate.
func (r ExchangeRate) Rate() decimal.Decimal { return r.rate }

// Scale returns the conversion result scale.
func (r ExchangeRate) Scale() int32 { return r.scale }

// Invert swaps base and quote. The reciprocal is computed at working
// precision so converting with the inverse loses no more than the final
// rounding; the result scale carries over unchanged.
func (r ExchangeRate) Invert() ExchangeRate {
	return ExchangeRate{
		base:  r.quote,
		quote: r.base,
		rate:  decimal.New(1, 0).DivRound(r.rate, ScaleWorking),
		scale: r.scale,
	}
}

// Convert turns a base-currency amount into the quote currency, rounded
// HALF-UP at the larger of the rate scale and the amount scale.
func (r ExchangeRate) Convert(m Money) (Money, error) {
	if m.Currency() != r.base {
		return Money{}, fmt.Errorf("%w: cannot convert %s with %s/%s rate", ErrInvalidInput, m.Currency(), r.base, r.quote)
	}
	scale := r.scale
	if m.Scale() > scale {
		scale = m.Scale()
	}
	return Money{
		currency: r.quote,
		amount:   m.Amount().Mul(r.rate).Round(scale),
		scale:    scale,
	}, nil
}

// String renders the rate at its scale, e.g. "USD/EUR 0.900".
func (r ExchangeRate) String() string {
	return fmt.Sprintf("%s/%s %s", r.base, r.quote, r.rate.StringFixed(r.scale))
}
