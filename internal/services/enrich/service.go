// Package enrich merges live market data into base holdings.
//
// Enrichment is best-effort: provider failures degrade individual fields
// back to their ingested values and surface as operational errors on the
// result, never as a failed cycle.
package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/interfaces"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// Service implements the EnrichmentService interface.
type Service struct {
	prices       interfaces.PriceClient
	fundamentals interfaces.FundamentalsClient
	logger       *common.Logger

	now func() time.Time
}

// NewService creates an enrichment service over the two market-data clients.
func NewService(prices interfaces.PriceClient, fundamentals interfaces.FundamentalsClient, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		prices:       prices,
		fundamentals: fundamentals,
		logger:       logger,
		now:          time.Now,
	}
}

// Enrich runs one enrichment cycle over the holdings: both providers are
// queried concurrently in batch, results are merged per holding, and every
// derived field is recomputed. The input slice is mutated in place.
func (s *Service) Enrich(ctx context.Context, holdings []*models.Holding) *models.EnrichResult {
	result := &models.EnrichResult{Holdings: holdings}
	if len(holdings) == 0 {
		result.Sectors = []*models.SectorSummary{}
		return result
	}

	symbols := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		sym := models.QuoteSymbol(h)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}

	var (
		prices    map[string]float64
		priceErr  error
		financial map[string]models.Financials
		finErrs   []models.OperationalError
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		prices, priceErr = s.prices.GetBatchPrices(ctx, symbols)
	}()
	go func() {
		defer wg.Done()
		financial, finErrs = s.fundamentals.GetBatchFinancials(ctx, symbols)
	}()
	wg.Wait()

	if priceErr != nil {
		s.logger.Warn().Err(priceErr).Msg("Batch price fetch failed")
		result.Errors = append(result.Errors, models.NewOperationalError(
			models.SourceYahoo, priceErr.Error()))
	}
	result.Errors = append(result.Errors, finErrs...)

	fetchedAt := s.now()
	for _, h := range holdings {
		sym := models.QuoteSymbol(h)
		if sym == "" {
			result.Errors = append(result.Errors, models.NewOperationalError(
				models.SourceEnrichment, "holding has no exchange code: "+h.Name))
			h.Recompute()
			continue
		}

		if price, ok := prices[sym]; ok {
			h.CMP = price
			h.LastUpdated = fetchedAt
		} else if priceErr == nil {
			result.Errors = append(result.Errors, models.NewOperationalError(
				models.SourceYahoo, "no price available").WithSymbol(sym))
		}

		if f, ok := financial[sym]; ok {
			if f.PERatio != nil {
				h.PERatio = f.PERatio
			}
			if f.LatestEarnings != nil {
				h.LatestEarnings = f.LatestEarnings
			}
		}

		h.Recompute()
	}

	models.RecomputeWeights(holdings)
	result.Sectors = models.SummarizeSectors(holdings)

	s.logger.Info().
		Int("holdings", len(holdings)).
		Int("symbols", len(symbols)).
		Int("errors", len(result.Errors)).
		Msg("Enrichment cycle complete")

	return result
}

// InvalidatePriceCache drops all cached quotes.
func (s *Service) InvalidatePriceCache() {
	s.prices.InvalidateCache()
}

// InvalidateFundamentalsCache drops all cached fundamentals.
func (s *Service) InvalidateFundamentalsCache() {
	s.fundamentals.InvalidateCache()
}

// Ensure Service implements EnrichmentService
var _ interfaces.EnrichmentService = (*Service)(nil)
