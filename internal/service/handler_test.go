package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbook/pathfinder/internal/config"
	"github.com/p2pbook/pathfinder/internal/orderbook"
)

func defaults() config.EngineConfig {
	return config.EngineConfig{
		MaxHops:          3,
		TopK:             3,
		MaxExpansions:    1000,
		MaxVisitedStates: 1000,
		MinTolerance:     "0",
		MaxTolerance:     "0.25",
		TimeBudget:       time.Second,
		GraphTTL:         time.Minute,
	}
}

func bridgeOrders() []orderbook.OrderDoc {
	return []orderbook.OrderDoc{
		{ID: "usd", Side: "SELL", Base: "USD", Quote: "EUR", Min: "10", Max: "200", Scale: 3, Rate: "0.900", RateScale: 3},
		{ID: "jpy", Side: "BUY", Base: "USD", Quote: "JPY", Min: "50", Max: "200", Scale: 1, Rate: "150.000", RateScale: 3},
		{ID: "bridge", Side: "SELL", Base: "JPY", Quote: "EUR", Min: "10", Max: "20000", Scale: 3, Rate: "0.007500", RateScale: 3},
	}
}

func TestHandler_RunBridgeRequest(t *testing.T) {
	h := NewHandler(nil, defaults())
	desired := "100.000"

	resp := h.run("req-1", &Request{
		Orders: bridgeOrders(),
		Source: "EUR",
		Target: "JPY",
		Spend:  &SpendDoc{Min: "100.000", Max: "100.000", Desired: &desired, Scale: 3},
	}, time.Now())

	require.Empty(t, resp.Error)
	require.Len(t, resp.Paths, 2)

	best := resp.Paths[0]
	assert.Equal(t, "EUR->USD->JPY", best.Route)
	assert.Equal(t, 2, best.Hops)
	assert.Equal(t, "100.000 EUR", best.TotalSpent)
	assert.Equal(t, "16665.000 JPY", best.TotalReceived)
	require.Len(t, best.Legs, 2)
	assert.Equal(t, "usd", best.Legs[0].OrderID)
	assert.Equal(t, "jpy", best.Legs[1].OrderID)

	assert.False(t, resp.Guards.ExpansionsReached)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestHandler_RunOverridesTopK(t *testing.T) {
	h := NewHandler(nil, defaults())
	topK := 1
	desired := "100.000"

	resp := h.run("req-2", &Request{
		Orders: bridgeOrders(),
		Source: "EUR",
		Target: "JPY",
		Spend:  &SpendDoc{Min: "100.000", Max: "100.000", Desired: &desired, Scale: 3},
		TopK:   &topK,
	}, time.Now())

	require.Empty(t, resp.Error)
	assert.Len(t, resp.Paths, 1)
}

func TestHandler_RunReportsBadInput(t *testing.T) {
	h := NewHandler(nil, defaults())

	resp := h.run("req-3", &Request{
		Orders: []orderbook.OrderDoc{{ID: "x", Side: "HOLD", Base: "USD", Quote: "EUR", Min: "1", Max: "2", Rate: "1", RateScale: 2}},
		Source: "EUR",
		Target: "USD",
		Spend:  &SpendDoc{Min: "1", Max: "2", Scale: 2},
	}, time.Now())

	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Paths)
}

func TestHandler_RunRequiresSpend(t *testing.T) {
	h := NewHandler(nil, defaults())

	resp := h.run("req-4", &Request{
		Orders: bridgeOrders(),
		Source: "EUR",
		Target: "JPY",
	}, time.Now())

	assert.NotEmpty(t, resp.Error)
}
