package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellOrder(t *testing.T, fees FeePolicy) *Order {
	t.Helper()
	pair, err := NewAssetPair("USD", "EUR")
	require.NoError(t, err)
	bounds, err := NewOrderBounds(MustMoney("USD", "10", 3), MustMoney("USD", "200", 3))
	require.NoError(t, err)
	o, err := NewOrder("ord-1", SideSell, pair, bounds, MustExchangeRate("USD", "EUR", "0.900", 3), fees)
	require.NoError(t, err)
	return o
}

func TestNewAssetPair_Validation(t *testing.T) {
	_, err := NewAssetPair("EUR", "EUR")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewAssetPair("E", "EUR")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewOrderBounds_Validation(t *testing.T) {
	_, err := NewOrderBounds(MustMoney("USD", "10", 2), MustMoney("USD", "5", 2))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewOrderBounds(MustMoney("USD", "1", 2), MustMoney("EUR", "2", 2))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewOrder_CrossFieldValidation(t *testing.T) {
	pair, _ := NewAssetPair("USD", "EUR")
	bounds, _ := NewOrderBounds(MustMoney("EUR", "1", 2), MustMoney("EUR", "2", 2))

	_, err := NewOrder("x", SideSell, pair, bounds, MustExchangeRate("USD", "EUR", "0.9", 3), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	goodBounds, _ := NewOrderBounds(MustMoney("USD", "1", 2), MustMoney("USD", "2", 2))
	_, err = NewOrder("x", Side("HOLD"), pair, goodBounds, MustExchangeRate("USD", "EUR", "0.9", 3), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewOrder("", SideSell, pair, goodBounds, MustExchangeRate("USD", "EUR", "0.9", 3), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrder_EdgeDirection(t *testing.T) {
	o := sellOrder(t, nil)
	// SELL on USD/EUR is crossed by a traveller holding EUR.
	assert.Equal(t, "EUR", o.From())
	assert.Equal(t, "USD", o.To())

	pair, _ := NewAssetPair("USD", "JPY")
	bounds, _ := NewOrderBounds(MustMoney("USD", "50", 1), MustMoney("USD", "200", 1))
	buy, err := NewOrder("ord-2", SideBuy, pair, bounds, MustExchangeRate("USD", "JPY", "150.000", 3), nil)
	require.NoError(t, err)
	assert.Equal(t, "USD", buy.From())
	assert.Equal(t, "JPY", buy.To())
}

func TestOrder_CalculateQuoteAmount(t *testing.T) {
	o := sellOrder(t, nil)
	got, err := o.CalculateQuoteAmount(MustMoney("USD", "100.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "90.000 EUR", got.String())
}

func TestOrder_CalculateGrossBaseSpend(t *testing.T) {
	o := sellOrder(t, nil)
	net := MustMoney("USD", "100.000", 3)

	gross, err := o.CalculateGrossBaseSpend(net, FeeBreakdown{})
	require.NoError(t, err)
	assert.Equal(t, "100.000 USD", gross.String())

	fee := MustMoney("USD", "0.500", 3)
	gross, err = o.CalculateGrossBaseSpend(net, FeeBreakdown{BaseFee: &fee})
	require.NoError(t, err)
	assert.Equal(t, "100.500 USD", gross.String())

	wrong := MustMoney("EUR", "0.5", 3)
	_, err = o.CalculateGrossBaseSpend(net, FeeBreakdown{BaseFee: &wrong})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrder_FingerprintDistinguishesFees(t *testing.T) {
	plain := sellOrder(t, nil)

	pct, err := NewPercentFeePolicy("0.001", "0")
	require.NoError(t, err)
	feed := sellOrder(t, pct)

	assert.NotEqual(t, plain.Fingerprint(), feed.Fingerprint())
}

func TestPercentFeePolicy(t *testing.T) {
	_, err := NewPercentFeePolicy("1", "0")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewPercentFeePolicy("-0.1", "0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := NewPercentFeePolicy("0.01", "0.02")
	require.NoError(t, err)
	assert.NotEmpty(t, p.Fingerprint())

	fees, err := p.Calculate(SideSell, MustMoney("USD", "100.000", 3), MustMoney("EUR", "90.000", 3))
	require.NoError(t, err)
	require.NotNil(t, fees.BaseFee)
	require.NotNil(t, fees.QuoteFee)
	assert.Equal(t, "1.000 USD", fees.BaseFee.String())
	assert.Equal(t, "1.800 EUR", fees.QuoteFee.String())
}

func TestFlatFeePolicy(t *testing.T) {
	fee := MustMoney("EUR", "0.250", 3)
	p, err := NewFlatFeePolicy(nil, &fee)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Fingerprint())

	fees, err := p.Calculate(SideBuy, MustMoney("USD", "1", 0), MustMoney("EUR", "1", 0))
	require.NoError(t, err)
	assert.Nil(t, fees.BaseFee)
	assert.Equal(t, "0.250 EUR", fees.QuoteFee.String())

	neg := MustMoney("EUR", "-1", 0)
	_, err = NewFlatFeePolicy(nil, &neg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
