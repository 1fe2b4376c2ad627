package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/common"
	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// writeWorkbook creates a single-sheet workbook from rows and returns its path.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "portfolio.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var standardHeader = []interface{}{
	"S. No", "Particulars", "Purchase Price", "Qty", "NSE/BSE", "P/E", "Latest Earnings", "Sector",
}

func TestIngestSectorDividersAndStockRows(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		standardHeader,
		{nil, "Technology Sector"},
		{1, "Acme Corp", 50, 4, "ACME", 22.5, "12.30"},
		{2, "Widget Ltd", 120, 10, "WIDGT", nil, "-"},
		{nil, "Financial Sector"},
		{3, "Big Bank", 200, 5, "BANK"},
	})

	svc := NewService(common.NewSilentLogger())
	result, err := svc.Ingest(path)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 3, result.ValidRows)
	assert.Equal(t, 0, result.InvalidRows)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Holdings, 3)

	acme := result.Holdings[0]
	assert.Equal(t, "Acme Corp", acme.Name)
	assert.Equal(t, "Technology", acme.Sector)
	assert.Equal(t, "ACME", acme.NSECode)
	assert.Nil(t, acme.BSECode)
	assert.Equal(t, 200.0, acme.Investment)
	require.NotNil(t, acme.PERatio)
	assert.Equal(t, 22.5, *acme.PERatio)
	require.NotNil(t, acme.LatestEarnings)
	assert.Equal(t, "12.30", *acme.LatestEarnings)

	widget := result.Holdings[1]
	assert.Equal(t, "Technology", widget.Sector)
	assert.Nil(t, widget.PERatio)
	assert.Nil(t, widget.LatestEarnings)

	bank := result.Holdings[2]
	assert.Equal(t, "Financial", bank.Sector)
	assert.Equal(t, 1000.0, bank.Investment)
}

func TestIngestExchangeCodeForms(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		standardHeader,
		{1, "NSE Only", 10, 1, "RELIANCE"},
		{2, "BSE Only", 10, 1, "500325"},
		{3, "Both", 10, 1, "INFY/500209"},
	})

	svc := NewService(nil)
	result, err := svc.Ingest(path)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 3)

	assert.Equal(t, "RELIANCE", result.Holdings[0].NSECode)
	assert.Nil(t, result.Holdings[0].BSECode)

	assert.Empty(t, result.Holdings[1].NSECode)
	require.NotNil(t, result.Holdings[1].BSECode)
	assert.Equal(t, "500325", *result.Holdings[1].BSECode)

	assert.Equal(t, "INFY", result.Holdings[2].NSECode)
	require.NotNil(t, result.Holdings[2].BSECode)
	assert.Equal(t, "500209", *result.Holdings[2].BSECode)
}

func TestIngestRowErrorsDoNotAbort(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		standardHeader,
		{1, "No Price", nil, 4, "NOPX"},
		{2, "No Code", 50, 4, nil},
		{3, "Good Row", 50, 4, "GOOD"},
	})

	svc := NewService(common.NewSilentLogger())
	result, err := svc.Ingest(path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 2, result.InvalidRows)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, models.SourceExcel, result.Errors[0].Source)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, 3, result.Errors[1].Row)

	require.Len(t, result.Holdings, 1)
	assert.Equal(t, "Good Row", result.Holdings[0].Name)
}

func TestIngestHeaderAliases(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"#", "Stock Name", "Buy Price", "Units", "Symbol", "PE Ratio", "EPS", "Category"},
		{1, "Alias Co", 25, 8, "ALIAS", 15, "3.10", "Utilities"},
	})

	svc := NewService(nil)
	result, err := svc.Ingest(path)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 1)

	h := result.Holdings[0]
	assert.Equal(t, "Alias Co", h.Name)
	assert.Equal(t, 25.0, h.PurchasePrice)
	assert.Equal(t, 8.0, h.Quantity)
	assert.Equal(t, "ALIAS", h.NSECode)
	require.NotNil(t, h.PERatio)
	assert.Equal(t, 15.0, *h.PERatio)
	assert.Equal(t, "Utilities", h.Sector)
}

func TestIngestSectorCellOverridesDivider(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		standardHeader,
		{nil, "Energy Sector"},
		{1, "Tagged", 10, 1, "TAGD", nil, nil, "Power"},
		{2, "Untagged", 10, 1, "UNTG"},
	})

	svc := NewService(nil)
	result, err := svc.Ingest(path)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)

	assert.Equal(t, "Power", result.Holdings[0].Sector)
	assert.Equal(t, "Energy", result.Holdings[1].Sector)
}

func TestIngestUnnamedRowsSkippedSilently(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		standardHeader,
		{1, "Kept", 10, 1, "KEPT"},
		{2, nil, 10, 1, "LOST"},
	})

	svc := NewService(nil)
	result, err := svc.Ingest(path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 0, result.InvalidRows)
	assert.Empty(t, result.Errors)
}

func TestIngestFileNotFound(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Ingest(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestIngestEmptyWorkbook(t *testing.T) {
	svc := NewService(nil)

	path := writeWorkbook(t, [][]interface{}{standardHeader})
	_, err := svc.Ingest(path)
	assert.ErrorIs(t, err, models.ErrEmptyWorkbook)
}

func TestSectorLabel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Technology Sector", "Technology"},
		{"Total - Financial Sector", "Financial"},
		{"SECTOR: Consumer Goods", "Consumer Goods"},
		{"Total", "Uncategorized"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sectorLabel(tt.name), tt.name)
	}
}

func TestParseExchangeCode(t *testing.T) {
	tests := []struct {
		in      string
		wantNSE string
		wantBSE string
	}{
		{"RELIANCE", "RELIANCE", ""},
		{"500325", "", "500325"},
		{"INFY/500209", "INFY", "500209"},
		{"TCS / 532540", "TCS", "532540"},
		{"HDFC/", "HDFC", ""},
	}
	for _, tt := range tests {
		nse, bse := parseExchangeCode(tt.in)
		assert.Equal(t, tt.wantNSE, nse, tt.in)
		if tt.wantBSE == "" {
			assert.Nil(t, bse, tt.in)
		} else {
			require.NotNil(t, bse, tt.in)
			assert.Equal(t, tt.wantBSE, *bse, tt.in)
		}
	}
}
