package types

import "fmt"

// Side of an order from the maker's perspective. A BUY order buys base with
// quote, so a path traveller holding base crosses it toward quote; a SELL
// order is crossed the other way.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// AssetPair names the traded pair. Base and quote are distinct currencies.
type AssetPair struct {
	Base  string
	Quote string
}

// NewAssetPair validates the currency codes and their distinctness.
func NewAssetPair(base, quote string) (AssetPair, error) {
	if !ValidCurrency(base) {
		return AssetPair{}, fmt.Errorf("%w: base currency %q", ErrInvalidInput, base)
	}
	if !ValidCurrency(quote) {
		return AssetPair{}, fmt.Errorf("%w: quote currency %q", ErrInvalidInput, quote)
	}
	if base == quote {
		return AssetPair{}, fmt.Errorf("%w: asset pair %s/%s has identical sides", ErrInvalidInput, base, quote)
	}
	return AssetPair{Base: base, Quote: quote}, nil
}

// String renders "BASE/QUOTE".
func (p AssetPair) String() string { return p.Base + "/" + p.Quote }

// OrderBounds is the fillable window in base currency.
type OrderBounds struct {
	Min Money
	Max Money
}

// NewOrderBounds validates currency agreement and min ≤ max.
func NewOrderBounds(min, max Money) (OrderBounds, error) {
	if min.Currency() != max.Currency() {
		return OrderBounds{}, fmt.Errorf("%w: bounds currency mismatch %s vs %s", ErrInvalidInput, min.Currency(), max.Currency())
	}
	if min.Amount().Cmp(max.Amount()) > 0 {
		return OrderBounds{}, fmt.Errorf("%w: bounds min %s exceeds max %s", ErrInvalidInput, min, max)
	}
	return OrderBounds{Min: min, Max: max}, nil
}

// Contains reports whether m lies within [Min, Max].
func (b OrderBounds) Contains(m Money) bool {
	if m.Currency() != b.Min.Currency() {
		return false
	}
	return m.Amount().Cmp(b.Min.Amount()) >= 0 && m.Amount().Cmp(b.Max.Amount()) <= 0
}

// Scale returns the scale bounds amounts are held at.
func (b OrderBounds) Scale() int32 {
	if b.Max.Scale() > b.Min.Scale() {
		return b.Max.Scale()
	}
	return b.Min.Scale()
}

// Order is a p2p offer: a side, a pair, a fillable base window, the
// effective rate and an optional fee policy. Orders are immutable once
// built and shared by reference.
type Order struct {
	ID     string
	Side   Side
	Pair   AssetPair
	Bounds OrderBounds
	Rate   ExchangeRate
	Fees   FeePolicy
}

// NewOrder validates cross-field agreement: bounds in base currency, rate
// quoted base→quote.
func NewOrder(id string, side Side, pair AssetPair, bounds OrderBounds, rate ExchangeRate, fees FeePolicy) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrInvalidInput)
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: order side %q", ErrInvalidInput, side)
	}
	if bounds.Min.Currency() != pair.Base {
		return nil, fmt.Errorf("%w: bounds currency %s does not match pair base %s", ErrInvalidInput, bounds.Min.Currency(), pair.Base)
	}
	if rate.Base() != pair.Base || rate.Quote() != pair.Quote {
		return nil, fmt.Errorf("%w: rate %s does not match pair %s", ErrInvalidInput, rate, pair)
	}
	return &Order{ID: id, Side: side, Pair: pair, Bounds: bounds, Rate: rate, Fees: fees}, nil
}

// From is the graph node a traveller crossing this order departs from:
// base for BUY, quote for SELL.
func (o *Order) From() string {
	if o.Side == SideBuy {
		return o.Pair.Base
	}
	return o.Pair.Quote
}

// To is the node the traveller arrives at.
func (o *Order) To() string {
	if o.Side == SideBuy {
		return o.Pair.Quote
	}
	return o.Pair.Base
}

// CalculateQuoteAmount prices a base amount through the order's rate.
func (o *Order) CalculateQuoteAmount(base Money) (Money, error) {
	return o.Rate.Convert(base)
}

// CalculateGrossBaseSpend is the base amount a filler parts with: the net
// base plus any base-denominated fee.
func (o *Order) CalculateGrossBaseSpend(netBase Money, fees FeeBreakdown) (Money, error) {
	if fees.BaseFee == nil {
		return netBase, nil
	}
	if fees.BaseFee.Currency() != netBase.Currency() {
		return Money{}, fmt.Errorf("%w: base fee currency %s for %s order", ErrInvalidInput, fees.BaseFee.Currency(), netBase.Currency())
	}
	scale := netBase.Scale()
	if fees.BaseFee.Scale() > scale {
		scale = fees.BaseFee.Scale()
	}
	return netBase.Add(*fees.BaseFee, scale)
}

// Fingerprint identifies the order for deterministic equality checks. Two
// orders with the same fingerprint behave identically in any search.
func (o *Order) Fingerprint() string {
	fees := "none"
	if o.Fees != nil {
		fees = o.Fees.Fingerprint()
	}
	return fmt.Sprintf("%s|%s|%s|%s@%d..%s@%d|%s@%d|%s",
		o.ID, o.Side, o.Pair,
		o.Bounds.Min.CanonicalString(), o.Bounds.Min.Scale(),
		o.Bounds.Max.CanonicalString(), o.Bounds.Max.Scale(),
		o.Rate.Rate().String(), o.Rate.Scale(), fees)
}
