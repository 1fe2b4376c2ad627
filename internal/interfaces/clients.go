// Package interfaces defines service contracts for the portfolio dashboard
package interfaces

import (
	"context"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// PriceClient provides live market prices.
type PriceClient interface {
	// GetPrice retrieves the current market price for one symbol.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// GetBatchPrices retrieves prices for many symbols, preferring a single
	// batched provider call. Symbols without an obtainable price are omitted
	// from the result; the caller is responsible for noticing gaps.
	GetBatchPrices(ctx context.Context, symbols []string) (map[string]float64, error)

	// InvalidateCache drops all cached prices (manual refresh hook).
	InvalidateCache()
}

// FundamentalsClient provides P/E ratio and latest-earnings data.
// A missing fundamental is a successful nil result, not an error.
type FundamentalsClient interface {
	// GetPERatio retrieves the P/E ratio for a symbol, nil when not published.
	GetPERatio(ctx context.Context, symbol string) (*float64, error)

	// GetLatestEarnings retrieves the latest-earnings text for a symbol,
	// nil when not published.
	GetLatestEarnings(ctx context.Context, symbol string) (*string, error)

	// GetBatchFinancials fetches both fundamentals per symbol concurrently.
	// Per-symbol failures are aggregated in the returned error list without
	// aborting other symbols.
	GetBatchFinancials(ctx context.Context, symbols []string) (map[string]models.Financials, []models.OperationalError)

	// InvalidateCache drops all cached fundamentals (manual refresh hook).
	InvalidateCache()
}
