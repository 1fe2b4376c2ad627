// Package app wires the ingestion and enrichment services into the
// dashboard's portfolio lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/interfaces"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// State describes what the portfolio lifecycle currently holds.
type State int

const (
	// StateEmpty means no portfolio has been loaded yet.
	StateEmpty State = iota
	// StateLoaded means the held result is within its reload interval.
	StateLoaded
	// StateStale means the held result is older than the reload interval
	// and the next read will trigger a reload.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Portfolio owns the loaded-and-enriched portfolio and its staleness
// lifecycle. Reads reuse the held result until it goes stale; reloads are
// serialized so concurrent readers never trigger duplicate work.
type Portfolio struct {
	config   *common.Config
	logger   *common.Logger
	ingest   interfaces.IngestService
	enricher interfaces.EnrichmentService

	mu       sync.Mutex
	result   *models.EnrichResult
	loadedAt time.Time

	now func() time.Time
}

// NewPortfolio creates the portfolio lifecycle over the two services.
func NewPortfolio(config *common.Config, logger *common.Logger, ingest interfaces.IngestService, enricher interfaces.EnrichmentService) *Portfolio {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Portfolio{
		config:   config,
		logger:   logger,
		ingest:   ingest,
		enricher: enricher,
		now:      time.Now,
	}
}

// State reports the current lifecycle state.
func (p *Portfolio) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Portfolio) stateLocked() State {
	switch {
	case p.result == nil:
		return StateEmpty
	case p.now().Sub(p.loadedAt) < p.config.Portfolio.GetReloadInterval():
		return StateLoaded
	default:
		return StateStale
	}
}

// Current returns the enriched portfolio, reloading from the spreadsheet
// and the market-data providers when the held result is absent or stale.
// A failed reload falls back to the previous result when one exists.
func (p *Portfolio) Current(ctx context.Context) (*models.EnrichResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stateLocked() == StateLoaded {
		return p.result, nil
	}
	return p.reloadLocked(ctx)
}

// Refresh drops both provider caches and forces a full reload.
func (p *Portfolio) Refresh(ctx context.Context) (*models.EnrichResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enricher.InvalidatePriceCache()
	p.enricher.InvalidateFundamentalsCache()
	p.logger.Info().Msg("Provider caches invalidated, reloading portfolio")

	return p.reloadLocked(ctx)
}

// reloadLocked ingests the configured spreadsheet and enriches the result.
// The caller must hold p.mu.
func (p *Portfolio) reloadLocked(ctx context.Context) (*models.EnrichResult, error) {
	path := p.config.Portfolio.FilePath

	ingested, err := p.ingest.Ingest(path)
	if err != nil {
		if p.result != nil {
			p.logger.Warn().Err(err).Str("file", path).Msg("Reload failed, serving previous portfolio")
			return p.result, nil
		}
		return nil, fmt.Errorf("failed to load portfolio from %s: %w", path, err)
	}

	result := p.enricher.Enrich(ctx, ingested.Holdings)
	result.Errors = append(ingested.Errors, result.Errors...)

	p.result = result
	p.loadedAt = p.now()

	p.logger.Info().
		Str("file", path).
		Int("holdings", len(result.Holdings)).
		Int("sectors", len(result.Sectors)).
		Int("errors", len(result.Errors)).
		Msg("Portfolio reloaded")

	return result, nil
}
