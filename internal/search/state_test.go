package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbook/pathfinder/internal/graph"
	"github.com/p2pbook/pathfinder/pkg/types"
)

func TestStateSignature_NullComponents(t *testing.T) {
	assert.Equal(t, "r:null|d:null", stateSignature(nil, nil))
}

func TestStateSignature_AlignsScales(t *testing.T) {
	coarse, err := graph.NewInterval(types.MustMoney("EUR", "1.5", 1), types.MustMoney("EUR", "2.5", 1))
	require.NoError(t, err)
	fine, err := graph.NewInterval(types.MustMoney("EUR", "1.50000", 5), types.MustMoney("EUR", "2.50000", 5))
	require.NoError(t, err)

	d1 := types.MustMoney("EUR", "2", 0)
	d2 := types.MustMoney("EUR", "2.000", 3)

	assert.Equal(t, stateSignature(&coarse, &d1), stateSignature(&fine, &d2))
	assert.NotEqual(t, stateSignature(&coarse, &d1), stateSignature(&coarse, nil))
}

func TestRegistry_DominanceWithinSignatureOnly(t *testing.T) {
	reg := make(stateRegistry)
	cost := decimal.RequireFromString("1")

	reg.register("USD", cost, 2, "sig-a")

	// Same signature, both axes no better: dominated.
	assert.True(t, reg.isDominated("USD", cost, 2, "sig-a"))
	assert.True(t, reg.isDominated("USD", cost.Add(decimal.New(1, 0)), 3, "sig-a"))

	// Cheaper, or shallower: not dominated.
	assert.False(t, reg.isDominated("USD", decimal.RequireFromString("0.5"), 3, "sig-a"))
	assert.False(t, reg.isDominated("USD", cost.Add(decimal.New(1, 0)), 1, "sig-a"))

	// Different signature is a different subproblem.
	assert.False(t, reg.isDominated("USD", cost, 2, "sig-b"))
	assert.False(t, reg.isDominated("EUR", cost, 2, "sig-a"))
}

func TestRegistry_RegisterEvictsAndCounts(t *testing.T) {
	reg := make(stateRegistry)

	assert.Equal(t, 1, reg.register("USD", decimal.RequireFromString("2"), 3, "sig"))
	assert.Equal(t, 1, reg.register("USD", decimal.RequireFromString("3"), 2, "sig"))

	// Dominates both existing records: net change is 1 - 2.
	assert.Equal(t, -1, reg.register("USD", decimal.RequireFromString("1"), 1, "sig"))
	assert.Len(t, reg["USD"], 1)

	assert.True(t, reg.hasSignature("USD", "sig"))
	assert.False(t, reg.hasSignature("USD", "other"))
}
