package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingRecompute(t *testing.T) {
	h := NewHolding("Acme", 100, 10, "Technology")
	h.CMP = 120
	h.Recompute()

	assert.Equal(t, 1000.0, h.Investment)
	assert.Equal(t, 1200.0, h.PresentValue)
	assert.Equal(t, 200.0, h.GainLoss)
	assert.Equal(t, 20.0, h.GainLossPct)
}

func TestHoldingRecomputeZeroInvestment(t *testing.T) {
	h := NewHolding("Freebie", 0, 10, "Misc")
	h.CMP = 50
	h.Recompute()

	assert.Equal(t, 0.0, h.Investment)
	assert.Equal(t, 500.0, h.PresentValue)
	assert.Equal(t, 0.0, h.GainLossPct, "zero-guard: no division by zero investment")
}

func TestNewHoldingHasUniqueID(t *testing.T) {
	a := NewHolding("A", 10, 1, "X")
	b := NewHolding("B", 10, 1, "X")
	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRecomputeWeightsSumTo100(t *testing.T) {
	holdings := []*Holding{
		NewHolding("A", 100, 10, "Tech"),
		NewHolding("B", 200, 5, "Tech"),
		NewHolding("C", 50, 40, "Energy"),
	}
	RecomputeWeights(holdings)

	var sum float64
	for _, h := range holdings {
		sum += h.PortfolioPct
	}
	assert.InDelta(t, 100.0, sum, 0.01)
}

func TestRecomputeWeightsZeroTotal(t *testing.T) {
	holdings := []*Holding{
		NewHolding("A", 0, 10, "Tech"),
		NewHolding("B", 0, 5, "Tech"),
	}
	RecomputeWeights(holdings)

	for _, h := range holdings {
		assert.Equal(t, 0.0, h.PortfolioPct)
	}
}

func TestSummarizeSectors(t *testing.T) {
	a := NewHolding("A", 100, 10, "Tech") // investment 1000
	b := NewHolding("B", 200, 5, "Tech")  // investment 1000
	c := NewHolding("C", 50, 40, "Energy") // investment 2000
	for _, h := range []*Holding{a, b, c} {
		h.CMP = h.PurchasePrice * 1.1
		h.Recompute()
	}

	summaries := SummarizeSectors([]*Holding{a, b, c})
	require.Len(t, summaries, 2)

	byName := map[string]*SectorSummary{}
	total := 0
	for _, s := range summaries {
		byName[s.Sector] = s
		total += s.HoldingsCount
	}
	assert.Equal(t, 3, total, "summaries partition the holding set")

	tech := byName["Tech"]
	require.NotNil(t, tech)
	assert.Equal(t, 2, tech.HoldingsCount)
	assert.InDelta(t, 2000.0, tech.TotalInvestment, 1e-9)
	assert.InDelta(t, a.PresentValue+b.PresentValue, tech.TotalPresentValue, 1e-9)
	assert.InDelta(t, a.GainLoss+b.GainLoss, tech.TotalGainLoss, 1e-9)

	energy := byName["Energy"]
	require.NotNil(t, energy)
	assert.Equal(t, 1, energy.HoldingsCount)
	assert.InDelta(t, c.Investment, energy.TotalInvestment, 1e-9)

	// Sector totals reconcile with holding totals.
	assert.InDelta(t, a.Investment+b.Investment+c.Investment,
		tech.TotalInvestment+energy.TotalInvestment, 1e-9)
}

func TestSummarizeSectorsGainLossPct(t *testing.T) {
	h := NewHolding("A", 100, 10, "Tech")
	h.CMP = 120
	h.Recompute()

	summaries := SummarizeSectors([]*Holding{h})
	require.Len(t, summaries, 1)
	assert.InDelta(t, 20.0, summaries[0].GainLossPct, 1e-9)

	// Zero investment sector keeps the zero-guard.
	z := NewHolding("Z", 0, 10, "Misc")
	summaries = SummarizeSectors([]*Holding{z})
	require.Len(t, summaries, 1)
	assert.False(t, math.IsNaN(summaries[0].GainLossPct))
	assert.Equal(t, 0.0, summaries[0].GainLossPct)
}
