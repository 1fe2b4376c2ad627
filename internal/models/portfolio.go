// Package models defines data structures for the portfolio dashboard
package models

import (
	"time"

	"github.com/google/uuid"
)

// Holding represents a single portfolio position.
//
// Static fields come from ingestion, dynamic fields from enrichment, and the
// derived fields are a pure function of the other two groups: nothing outside
// Recompute / RecomputeWeights may write them.
type Holding struct {
	ID string `json:"id"`

	// Static (ingestion)
	Name          string  `json:"name"`
	PurchasePrice float64 `json:"purchase_price"`
	Quantity      float64 `json:"quantity"`
	NSECode       string  `json:"nse_code,omitempty"`
	BSECode       *string `json:"bse_code,omitempty"`
	Sector        string  `json:"sector"`

	// Dynamic (enrichment)
	CMP            float64   `json:"cmp"`
	PERatio        *float64  `json:"pe_ratio"`
	LatestEarnings *string   `json:"latest_earnings"`
	LastUpdated    time.Time `json:"last_updated"`

	// Derived, recomputed every enrichment cycle
	Investment   float64 `json:"investment"`
	PresentValue float64 `json:"present_value"`
	GainLoss     float64 `json:"gain_loss"`
	GainLossPct  float64 `json:"gain_loss_pct"`
	PortfolioPct float64 `json:"portfolio_pct"`
}

// NewHolding creates a holding with a process-unique ID and its
// investment-side derived fields populated (CMP starts at 0).
func NewHolding(name string, purchasePrice, quantity float64, sector string) *Holding {
	h := &Holding{
		ID:            uuid.NewString(),
		Name:          name,
		PurchasePrice: purchasePrice,
		Quantity:      quantity,
		Sector:        sector,
	}
	h.Recompute()
	return h
}

// Recompute recalculates all per-holding derived fields from the static and
// dynamic fields. PortfolioPct needs the portfolio total, so it is handled
// separately by RecomputeWeights.
func (h *Holding) Recompute() {
	h.Investment = h.PurchasePrice * h.Quantity
	h.PresentValue = h.CMP * h.Quantity
	h.GainLoss = h.PresentValue - h.Investment
	if h.Investment != 0 {
		h.GainLossPct = h.GainLoss / h.Investment * 100
	} else {
		h.GainLossPct = 0
	}
}

// RecomputeWeights sets PortfolioPct on every holding as its share of total
// investment. All weights are 0 when the total is 0.
func RecomputeWeights(holdings []*Holding) {
	var total float64
	for _, h := range holdings {
		total += h.Investment
	}
	for _, h := range holdings {
		if total != 0 {
			h.PortfolioPct = h.Investment / total * 100
		} else {
			h.PortfolioPct = 0
		}
	}
}

// SectorSummary aggregates the holdings of one sector.
type SectorSummary struct {
	Sector            string  `json:"sector"`
	TotalInvestment   float64 `json:"total_investment"`
	TotalPresentValue float64 `json:"total_present_value"`
	TotalGainLoss     float64 `json:"total_gain_loss"`
	GainLossPct       float64 `json:"gain_loss_pct"`
	HoldingsCount     int     `json:"holdings_count"`
}

// SummarizeSectors groups holdings by sector and totals each group. The
// returned summaries partition the holding set: every holding contributes to
// exactly one summary. Order follows first appearance in the input.
func SummarizeSectors(holdings []*Holding) []*SectorSummary {
	index := make(map[string]*SectorSummary)
	var summaries []*SectorSummary

	for _, h := range holdings {
		s, ok := index[h.Sector]
		if !ok {
			s = &SectorSummary{Sector: h.Sector}
			index[h.Sector] = s
			summaries = append(summaries, s)
		}
		s.TotalInvestment += h.Investment
		s.TotalPresentValue += h.PresentValue
		s.TotalGainLoss += h.GainLoss
		s.HoldingsCount++
	}

	for _, s := range summaries {
		if s.TotalInvestment != 0 {
			s.GainLossPct = s.TotalGainLoss / s.TotalInvestment * 100
		}
	}

	return summaries
}

// Financials carries the two fundamentals fetched per symbol. Either field
// may be nil; a missing fundamental is expected, not exceptional.
type Financials struct {
	PERatio        *float64 `json:"pe_ratio"`
	LatestEarnings *string  `json:"latest_earnings"`
}

// IngestResult is the outcome of one spreadsheet ingestion pass.
type IngestResult struct {
	Holdings    []*Holding         `json:"holdings"`
	Errors      []OperationalError `json:"errors,omitempty"`
	TotalRows   int                `json:"total_rows"`
	ValidRows   int                `json:"valid_rows"`
	InvalidRows int                `json:"invalid_rows"`
}

// EnrichResult is the outcome of one enrichment cycle.
type EnrichResult struct {
	Holdings []*Holding         `json:"holdings"`
	Sectors  []*SectorSummary   `json:"sectors"`
	Errors   []OperationalError `json:"errors,omitempty"`
}
