package ingest

import "strings"

// column identifies a logical spreadsheet column.
type column int

const (
	colRowNo column = iota
	colName
	colPrice
	colQty
	colCode
	colPE
	colEarnings
	colSector
)

// columnAliases lists accepted header spellings per logical column, most
// specific first. Matching is a case-insensitive substring test so
// "NSE/BSE Code" satisfies both "nse/bse" and "code".
var columnAliases = []struct {
	col     column
	aliases []string
}{
	{colRowNo, []string{"s. no", "s.no", "sl no", "sr no", "no.", "#"}},
	{colName, []string{"particulars", "stock name", "company", "name", "stock"}},
	{colPrice, []string{"purchase price", "buy price", "avg price", "price"}},
	{colQty, []string{"quantity", "qty", "units", "shares"}},
	{colCode, []string{"nse/bse", "nse / bse", "exchange", "symbol", "ticker", "scrip", "code"}},
	{colPE, []string{"p/e ratio", "pe ratio", "p/e", "pe"}},
	{colEarnings, []string{"latest earnings", "earnings", "eps"}},
	{colSector, []string{"sector", "category"}},
}

// columnMap maps logical columns to zero-based cell indexes. Missing columns
// have no entry.
type columnMap map[column]int

// mapHeaders resolves the header row into a columnMap. Each header cell is
// claimed at most once, and columns are resolved in a fixed order so that
// specific aliases win over generic ones.
func mapHeaders(header []string) columnMap {
	columns := make(columnMap, len(columnAliases))
	claimed := make(map[int]bool, len(header))

	for _, entry := range columnAliases {
		for _, alias := range entry.aliases {
			idx := findHeader(header, claimed, alias)
			if idx < 0 {
				continue
			}
			columns[entry.col] = idx
			claimed[idx] = true
			break
		}
	}
	return columns
}

func findHeader(header []string, claimed map[int]bool, alias string) int {
	for i, cell := range header {
		if claimed[i] {
			continue
		}
		if strings.Contains(strings.ToLower(strings.TrimSpace(cell)), alias) {
			return i
		}
	}
	return -1
}

// cell returns the value of a logical column in a row, or "" when the column
// is unmapped or the row is too short.
func (m columnMap) cell(row []string, col column) string {
	idx, ok := m[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
