package orderbook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbook/pathfinder/pkg/types"
)

func testOrder(t *testing.T, id string, side types.Side, base, quote, min, max, rate string, fees types.FeePolicy) *types.Order {
	t.Helper()
	pair, err := types.NewAssetPair(base, quote)
	require.NoError(t, err)
	bounds, err := types.NewOrderBounds(
		types.MustMoney(base, min, 3),
		types.MustMoney(base, max, 3),
	)
	require.NoError(t, err)
	o, err := types.NewOrder(id, side, pair, bounds, types.MustExchangeRate(base, quote, rate, 3), fees)
	require.NoError(t, err)
	return o
}

func TestBook_AddAndFilters(t *testing.T) {
	sell := testOrder(t, "s1", types.SideSell, "USD", "EUR", "10", "200", "0.900", nil)
	buy := testOrder(t, "b1", types.SideBuy, "USD", "JPY", "50", "200", "150.000", nil)

	book, err := FromOrders(sell, buy)
	require.NoError(t, err)
	assert.Equal(t, 2, book.Len())

	assert.Len(t, book.BySide(types.SideSell), 1)
	assert.Len(t, book.BySide(types.SideBuy), 1)
	assert.Len(t, book.ByCurrency("USD"), 2)
	assert.Len(t, book.ByCurrency("JPY"), 1)
	assert.Len(t, book.ByPair(sell.Pair), 1)

	got, ok := book.Get("s1")
	assert.True(t, ok)
	assert.Equal(t, sell, got)

	err = book.Add(testOrder(t, "s1", types.SideSell, "USD", "EUR", "1", "2", "0.5", nil))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestBook_FingerprintIsOrderInsensitive(t *testing.T) {
	a := testOrder(t, "s1", types.SideSell, "USD", "EUR", "10", "200", "0.900", nil)
	b := testOrder(t, "b1", types.SideBuy, "USD", "JPY", "50", "200", "150.000", nil)

	fwd, err := FromOrders(a, b)
	require.NoError(t, err)
	rev, err := FromOrders(b, a)
	require.NoError(t, err)

	assert.Equal(t, fwd.Fingerprint(), rev.Fingerprint())

	other, err := FromOrders(a)
	require.NoError(t, err)
	assert.NotEqual(t, fwd.Fingerprint(), other.Fingerprint())
}

func TestFillEvaluator_NoFees(t *testing.T) {
	o := testOrder(t, "s1", types.SideSell, "USD", "EUR", "10", "200", "0.900", nil)
	eval := NewFillEvaluator()

	fill, err := eval.Evaluate(o, o.Bounds.Max)
	require.NoError(t, err)
	assert.Equal(t, "200.000 USD", fill.NetBase.String())
	assert.Equal(t, "180.000 EUR", fill.Quote.String())
	assert.Equal(t, "200.000 USD", fill.GrossBase.String())
}

func TestFillEvaluator_BaseFeeWidensGross(t *testing.T) {
	pct, err := types.NewPercentFeePolicy("0.01", "0")
	require.NoError(t, err)
	o := testOrder(t, "s1", types.SideSell, "USD", "EUR", "10", "200", "0.900", pct)
	eval := NewFillEvaluator()

	fill, err := eval.Evaluate(o, o.Bounds.Max)
	require.NoError(t, err)
	assert.Equal(t, "200.000 USD", fill.NetBase.String())
	assert.Equal(t, "202.000 USD", fill.GrossBase.String())
}

func TestFillEvaluator_RejectsWrongCurrency(t *testing.T) {
	o := testOrder(t, "s1", types.SideSell, "USD", "EUR", "10", "200", "0.900", nil)
	_, err := NewFillEvaluator().Evaluate(o, types.MustMoney("EUR", "10", 3))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestReadBook(t *testing.T) {
	doc := `{
		"orders": [
			{"id": "s1", "side": "SELL", "base": "USD", "quote": "EUR",
			 "min": "10", "max": "200", "scale": 3, "rate": "0.900", "rate_scale": 3},
			{"id": "b1", "side": "BUY", "base": "USD", "quote": "JPY",
			 "min": "50", "max": "200", "scale": 1, "rate": "150.000", "rate_scale": 3,
			 "fee": {"kind": "percent", "quote_rate": "0.02"}}
		]
	}`
	book, err := ReadBook(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, book.Len())

	b1, ok := book.Get("b1")
	require.True(t, ok)
	require.NotNil(t, b1.Fees)
	assert.Contains(t, b1.Fees.Fingerprint(), "0.02")

	_, err = ReadBook(strings.NewReader(`{"orders": [{"id": "x"}]}`))
	assert.Error(t, err)
}
