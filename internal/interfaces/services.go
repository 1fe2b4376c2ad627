package interfaces

import (
	"context"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// IngestService parses a portfolio spreadsheet into base holdings.
type IngestService interface {
	// Ingest reads the file at path and returns holdings plus per-row
	// errors. Fails hard only when the file is absent or the workbook
	// carries no data rows.
	Ingest(path string) (*models.IngestResult, error)
}

// EnrichmentService merges live provider data into base holdings and
// recomputes every derived field.
type EnrichmentService interface {
	// Enrich never fails for partial data unavailability; the result
	// carries the accumulated operational errors instead.
	Enrich(ctx context.Context, holdings []*models.Holding) *models.EnrichResult

	// InvalidatePriceCache drops cached quotes before a forced refresh.
	InvalidatePriceCache()

	// InvalidateFundamentalsCache drops cached fundamentals before a
	// forced refresh.
	InvalidateFundamentalsCache()
}
