package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbook/pathfinder/pkg/types"
)

func testCandidate(t *testing.T, cost string, hops int, orderIDs ...string) *Candidate {
	t.Helper()
	edges := make([]PathEdge, len(orderIDs))
	from := "AAA"
	for i, id := range orderIDs {
		to := string(rune('B'+i)) + "BB"
		pair, err := types.NewAssetPair(from, to)
		require.NoError(t, err)
		bounds, err := types.NewOrderBounds(types.MustMoney(from, "0", 0), types.MustMoney(from, "10", 0))
		require.NoError(t, err)
		o, err := types.NewOrder(id, types.SideBuy, pair, bounds, types.MustExchangeRate(from, to, "1", 2), nil)
		require.NoError(t, err)
		edges[i] = PathEdge{From: from, To: to, Order: o, Rate: o.Rate, Side: o.Side, ConversionRate: decimal.New(1, 0)}
		from = to
	}
	return &Candidate{
		Cost:    decimal.RequireFromString(cost),
		Product: decimal.New(1, 0),
		Hops:    hops,
		Edges:   edges,
	}
}

func wideTolerance(t *testing.T) Tolerance {
	t.Helper()
	tol, err := ParseTolerance("0.9")
	require.NoError(t, err)
	return tol
}

func TestCandidate_RouteSignature(t *testing.T) {
	c := testCandidate(t, "1", 2, "o1", "o2")
	assert.Equal(t, "AAA->BBB->CBB", c.RouteSignature())
	assert.Empty(t, (&Candidate{}).RouteSignature())
}

func TestResultHeap_RetainsKBest(t *testing.T) {
	h := newResultHeap(2)
	h.add(testCandidate(t, "3", 1, "o3"), 0)
	h.add(testCandidate(t, "1", 1, "o1"), 1)
	h.add(testCandidate(t, "2", 1, "o2"), 2)
	h.add(testCandidate(t, "4", 1, "o4"), 3)

	entries := h.drain()
	require.Len(t, entries, 2)
	costs := map[string]bool{}
	for _, e := range entries {
		costs[e.candidate.Cost.String()] = true
	}
	assert.True(t, costs["1"])
	assert.True(t, costs["2"])
}

func TestResultHeap_EvictsByHopsThenInsertionOnTies(t *testing.T) {
	h := newResultHeap(1)
	h.add(testCandidate(t, "1", 3, "deep-a", "deep-b", "deep-c"), 0)
	h.add(testCandidate(t, "1", 1, "shallow"), 1)

	entries := h.drain()
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].candidate.Hops)
}

func TestFinalize_SortsAndFiltersEnvelope(t *testing.T) {
	entries := []resultEntry{
		{candidate: testCandidate(t, "1.5", 1, "mid"), insertion: 0},
		{candidate: testCandidate(t, "1", 1, "best"), insertion: 1},
		{candidate: testCandidate(t, "20", 1, "outlier"), insertion: 2},
	}

	got := finalize(entries, DefaultOrderStrategy{}, wideTolerance(t))
	// 1 / (1 - 0.9) caps the envelope at 10x the best cost.
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Cost.String())
	assert.Equal(t, "1.5", got[1].Cost.String())
}

func TestFinalize_SuppressesDuplicateRoutes(t *testing.T) {
	a := testCandidate(t, "1", 1, "o1")
	b := testCandidate(t, "1.2", 1, "o1") // same route, same order
	c := testCandidate(t, "1.3", 1, "o2") // same route, different order

	got := finalize([]resultEntry{
		{candidate: b, insertion: 0},
		{candidate: a, insertion: 1},
		{candidate: c, insertion: 2},
	}, DefaultOrderStrategy{}, wideTolerance(t))

	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, c, got[1])
}

func TestFinalize_ExactRegimeKeepsOnlyBestCost(t *testing.T) {
	exact, err := ParseTolerance("0")
	require.NoError(t, err)

	got := finalize([]resultEntry{
		{candidate: testCandidate(t, "1", 1, "o1"), insertion: 0},
		{candidate: testCandidate(t, "1.1", 1, "o2"), insertion: 1},
	}, DefaultOrderStrategy{}, exact)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Cost.String())
}

func TestDefaultOrderStrategy(t *testing.T) {
	s := DefaultOrderStrategy{}
	base := PathOrderKey{Cost: decimal.New(1, 0), Hops: 1, RouteSignature: "A->B", Insertion: 0}

	assert.Negative(t, s.Compare(base, PathOrderKey{Cost: decimal.New(2, 0), Hops: 1, RouteSignature: "A->B"}))
	assert.Negative(t, s.Compare(base, PathOrderKey{Cost: decimal.New(1, 0), Hops: 2, RouteSignature: "A->B"}))
	assert.Negative(t, s.Compare(base, PathOrderKey{Cost: decimal.New(1, 0), Hops: 1, RouteSignature: "A->C"}))
	assert.Negative(t, s.Compare(base, PathOrderKey{Cost: decimal.New(1, 0), Hops: 1, RouteSignature: "A->B", Insertion: 5}))
	assert.Zero(t, s.Compare(base, base))
}
