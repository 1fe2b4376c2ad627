// Package ingest parses a portfolio spreadsheet into base holdings.
//
// The sheet layout is loose: column positions are located by fuzzy header
// matching and each data row is classified as a sector divider, a stock row,
// or a skip. Narrow problems degrade to per-row errors; only an unreadable
// or empty workbook fails the whole ingestion.
package ingest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/interfaces"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// defaultSector is applied to stock rows that appear before any divider.
const defaultSector = "Uncategorized"

// Service implements the IngestService interface.
type Service struct {
	logger *common.Logger
}

// NewService creates a new ingestion service.
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{logger: logger}
}

// Ingest reads the first sheet of the workbook at path and returns base
// holdings plus per-row errors.
func (s *Service) Ingest(path string) (*models.IngestResult, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", models.ErrFileNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) <= 1 {
		return nil, models.ErrEmptyWorkbook
	}

	columns := mapHeaders(rows[0])
	s.logger.Debug().
		Str("sheet", sheets[0]).
		Int("rows", len(rows)-1).
		Msg("Mapped spreadsheet headers")

	result := &models.IngestResult{}
	currentSector := defaultSector

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header row
		if isEmptyRow(row) {
			continue
		}
		result.TotalRows++

		switch c := classifyRow(row, columns); c.kind {
		case rowSectorDivider:
			currentSector = c.sectorLabel

		case rowSkipped:
			s.logger.Debug().Int("row", rowNum).Msg("Skipped unnamed row")

		case rowStock:
			holding, err := buildHolding(row, columns, currentSector)
			if err != nil {
				result.Errors = append(result.Errors, models.NewOperationalError(
					models.SourceExcel, err.Error()).WithRow(rowNum))
				result.InvalidRows++
				continue
			}
			result.Holdings = append(result.Holdings, holding)
			result.ValidRows++
		}
	}

	s.logger.Info().
		Str("file", path).
		Int("total", result.TotalRows).
		Int("valid", result.ValidRows).
		Int("invalid", result.InvalidRows).
		Msg("Portfolio ingested")

	return result, nil
}

// rowKind tags the classifier outcome.
type rowKind int

const (
	rowStock rowKind = iota
	rowSectorDivider
	rowSkipped
)

type classified struct {
	kind        rowKind
	sectorLabel string
}

// classifyRow decides what one data row is. A row with no numeric row index
// and no exchange code whose name mentions "Sector" or "Total" changes the
// current sector; a row without a usable name is skipped silently;
// everything else is treated as a stock row.
func classifyRow(row []string, columns columnMap) classified {
	name := strings.TrimSpace(columns.cell(row, colName))
	if name == "" {
		return classified{kind: rowSkipped}
	}

	_, hasIndex := parseNumber(columns.cell(row, colRowNo))
	code := strings.TrimSpace(columns.cell(row, colCode))
	lower := strings.ToLower(name)
	if !hasIndex && code == "" && (strings.Contains(lower, "sector") || strings.Contains(lower, "total")) {
		return classified{kind: rowSectorDivider, sectorLabel: sectorLabel(name)}
	}

	return classified{kind: rowStock}
}

// buildHolding constructs a Holding from a stock row. Purchase price and
// exchange code are required; anything else degrades gracefully.
func buildHolding(row []string, columns columnMap, sector string) (*models.Holding, error) {
	name := strings.TrimSpace(columns.cell(row, colName))

	price, ok := parseNumber(columns.cell(row, colPrice))
	if !ok {
		return nil, fmt.Errorf("stock row %q has no purchase price", name)
	}

	code := strings.TrimSpace(columns.cell(row, colCode))
	if code == "" {
		return nil, fmt.Errorf("stock row %q has no exchange code", name)
	}

	quantity, _ := parseNumber(columns.cell(row, colQty))

	h := models.NewHolding(name, price, quantity, sector)
	h.NSECode, h.BSECode = parseExchangeCode(code)
	h.PERatio = parsePE(columns.cell(row, colPE))
	h.LatestEarnings = parseEarnings(columns.cell(row, colEarnings))

	// A per-row sector cell overrides the running divider context.
	if cell := strings.TrimSpace(columns.cell(row, colSector)); cell != "" {
		h.Sector = cell
	}

	return h, nil
}

// parseExchangeCode splits an exchange-code cell: pure digits are a BSE
// scrip code, "A/B" carries NSE and BSE, any other text is the NSE code.
func parseExchangeCode(code string) (nse string, bse *string) {
	if isDigits(code) {
		return "", &code
	}
	if idx := strings.IndexAny(code, "/|"); idx >= 0 {
		primary := strings.TrimSpace(code[:idx])
		secondary := strings.TrimSpace(code[idx+1:])
		if secondary != "" {
			return primary, &secondary
		}
		return primary, nil
	}
	return code, nil
}

// parsePE accepts only positive numeric P/E values.
func parsePE(cell string) *float64 {
	n, ok := parseNumber(cell)
	if !ok || n <= 0 {
		return nil
	}
	return &n
}

// noDataSentinels are cell values meaning "not available".
var noDataSentinels = map[string]bool{
	"": true, "-": true, "--": true, "—": true, "n/a": true, "na": true, "nil": true,
}

// parseEarnings returns the trimmed earnings text, nil for sentinels.
func parseEarnings(cell string) *string {
	trimmed := strings.TrimSpace(cell)
	if noDataSentinels[strings.ToLower(trimmed)] {
		return nil
	}
	return &trimmed
}

// sectorLabel strips the "Sector"/"Total" keywords and surrounding
// punctuation from a divider row's name.
func sectorLabel(name string) string {
	label := name
	for _, keyword := range []string{"sector", "total"} {
		for {
			idx := strings.Index(strings.ToLower(label), keyword)
			if idx < 0 {
				break
			}
			label = label[:idx] + label[idx+len(keyword):]
		}
	}
	label = strings.Trim(label, " -–—:.\t")
	if label == "" {
		return defaultSector
	}
	return label
}

func parseNumber(cell string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Ensure Service implements IngestService
var _ interfaces.IngestService = (*Service)(nil)
