package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/internal/orderbook"
	"github.com/p2pbook/pathfinder/pkg/types"
)

func sellEdge(t *testing.T, min, max string) *graph.Edge {
	t.Helper()
	pair, err := types.NewAssetPair("USD", "EUR")
	require.NoError(t, err)
	bounds, err := types.NewOrderBounds(
		types.MustMoney("USD", min, 3),
		types.MustMoney("USD", max, 3),
	)
	require.NoError(t, err)
	o, err := types.NewOrder("s1", types.SideSell, pair, bounds, types.MustExchangeRate("USD", "EUR", "0.900", 3), nil)
	require.NoError(t, err)
	g, err := graph.NewBuilder(orderbook.NewFillEvaluator()).Build([]*types.Order{o})
	require.NoError(t, err)
	node, ok := g.Node("EUR")
	require.True(t, ok)
	require.Len(t, node.Edges, 1)
	return node.Edges[0]
}

func TestEdgeFeasibleRange(t *testing.T) {
	e := sellEdge(t, "10", "200")

	spend, err := graph.NewInterval(types.MustMoney("EUR", "100", 3), types.MustMoney("EUR", "100", 3))
	require.NoError(t, err)
	got, ok := edgeFeasibleRange(e, spend)
	require.True(t, ok)
	assert.Equal(t, "100.000 EUR", got.Min.String())
	assert.Equal(t, "100.000 EUR", got.Max.String())

	// Below the mandatory floor (9 EUR) or above the ceiling (180 EUR):
	// the edge cannot carry the spend.
	tiny, err := graph.NewInterval(types.MustMoney("EUR", "1", 3), types.MustMoney("EUR", "5", 3))
	require.NoError(t, err)
	_, ok = edgeFeasibleRange(e, tiny)
	assert.False(t, ok)

	huge, err := graph.NewInterval(types.MustMoney("EUR", "500", 3), types.MustMoney("EUR", "900", 3))
	require.NoError(t, err)
	_, ok = edgeFeasibleRange(e, huge)
	assert.False(t, ok)
}

func TestConvertEdgeAmount_AffineInterpolation(t *testing.T) {
	e := sellEdge(t, "10", "200")

	// Source [9, 180] EUR maps onto target [10, 200] USD.
	got, err := convertEdgeAmount(e, types.MustMoney("EUR", "100.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "111.111 USD", got.String())

	// Endpoints map to endpoints.
	got, err = convertEdgeAmount(e, types.MustMoney("EUR", "9.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "10.000 USD", got.String())

	got, err = convertEdgeAmount(e, types.MustMoney("EUR", "180.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "200.000 USD", got.String())

	// Out-of-interval input clamps first.
	got, err = convertEdgeAmount(e, types.MustMoney("EUR", "999.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "200.000 USD", got.String())
}

func TestConvertEdgeAmount_PointSourceReturnsTargetMin(t *testing.T) {
	e := sellEdge(t, "50", "50")

	got, err := convertEdgeAmount(e, types.MustMoney("EUR", "45.000", 3))
	require.NoError(t, err)
	assert.Equal(t, "50.000 USD", got.String())
}

func TestConvertRange_PreservesEndpointOrder(t *testing.T) {
	e := sellEdge(t, "10", "200")

	in, err := graph.NewInterval(types.MustMoney("EUR", "9.000", 3), types.MustMoney("EUR", "90.000", 3))
	require.NoError(t, err)
	got, err := convertRange(e, in)
	require.NoError(t, err)
	assert.Equal(t, "10.000 USD", got.Min.String())
	assert.Equal(t, "100.000 USD", got.Max.String())
}
