package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeBreakdown is the outcome of applying a fee policy to a fill. Either
// component may be nil when the policy charges nothing on that side.
type FeeBreakdown struct {
	BaseFee  *Money
	QuoteFee *Money
}

// Base returns the base-side fee, or a zero amount in the given currency.
func (f FeeBreakdown) Base(currency string, scale int32) Money {
	if f.BaseFee != nil {
		return *f.BaseFee
	}
	return Money{currency: currency, amount: decimal.Zero, scale: scale}
}

// Quote returns the quote-side fee, or a zero amount in the given currency.
func (f FeeBreakdown) Quote(currency string, scale int32) Money {
	if f.QuoteFee != nil {
		return *f.QuoteFee
	}
	return Money{currency: currency, amount: decimal.Zero, scale: scale}
}

// FeePolicy prices the fees of a prospective fill. Implementations are
// immutable value objects; Fingerprint feeds deterministic order equality
// and must be stable and non-empty.
type FeePolicy interface {
	Calculate(side Side, baseAmount, quoteAmount Money) (FeeBreakdown, error)
	Fingerprint() string
}

// PercentFeePolicy charges a fraction of the base and/or quote amount.
// Rates are fractions, not percentages: 0.01 is one percent.
type PercentFeePolicy struct {
	baseRate  decimal.Decimal
	quoteRate decimal.Decimal
}

// NewPercentFeePolicy builds a proportional policy. Rates must lie in [0, 1).
func NewPercentFeePolicy(baseRate, quoteRate string) (*PercentFeePolicy, error) {
	br, err := parseFeeRate(baseRate)
	if err != nil {
		return nil, err
	}
	qr, err := parseFeeRate(quoteRate)
	if err != nil {
		return nil, err
	}
	return &PercentFeePolicy{baseRate: br, quoteRate: qr}, nil
}

func parseFeeRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: fee rate %q: %v", ErrInvalidInput, s, err)
	}
	if d.Sign() < 0 || d.Cmp(decimal.New(1, 0)) >= 0 {
		return decimal.Zero, fmt.Errorf("%w: fee rate %s outside [0, 1)", ErrInvalidInput, d)
	}
	return d, nil
}

// Calculate charges baseRate on the base amount and quoteRate on the quote
// amount, each rounded at the amount's own scale.
func (p *PercentFeePolicy) Calculate(_ Side, baseAmount, quoteAmount Money) (FeeBreakdown, error) {
	var out FeeBreakdown
	if p.baseRate.Sign() > 0 {
		fee := baseAmount.MulDec(p.baseRate, baseAmount.Scale())
		out.BaseFee = &fee
	}
	if p.quoteRate.Sign() > 0 {
		fee := quoteAmount.MulDec(p.quoteRate, quoteAmount.Scale())
		out.QuoteFee = &fee
	}
	return out, nil
}

// Fingerprint identifies the policy by kind and rates.
func (p *PercentFeePolicy) Fingerprint() string {
	return fmt.Sprintf("pct:base=%s,quote=%s", p.baseRate.String(), p.quoteRate.String())
}

// FlatFeePolicy charges fixed amounts regardless of fill size.
type FlatFeePolicy struct {
	baseFee  *Money
	quoteFee *Money
}

// NewFlatFeePolicy builds a flat policy; either fee may be nil. Fees must
// not be negative.
func NewFlatFeePolicy(baseFee, quoteFee *Money) (*FlatFeePolicy, error) {
	if baseFee != nil && baseFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative base fee %s", ErrInvalidInput, baseFee)
	}
	if quoteFee != nil && quoteFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative quote fee %s", ErrInvalidInput, quoteFee)
	}
	return &FlatFeePolicy{baseFee: baseFee, quoteFee: quoteFee}, nil
}

// Calculate returns the fixed fees.
func (p *FlatFeePolicy) Calculate(Side, Money, Money) (FeeBreakdown, error) {
	return FeeBreakdown{BaseFee: p.baseFee, QuoteFee: p.quoteFee}, nil
}

// Fingerprint identifies the policy by kind and amounts.
func (p *FlatFeePolicy) Fingerprint() string {
	base, quote := "none", "none"
	if p.baseFee != nil {
		base = p.baseFee.CanonicalString()
	}
	if p.quoteFee != nil {
		quote = p.quoteFee.CanonicalString()
	}
	return fmt.Sprintf("flat:base=%s,quote=%s", base, quote)
}
