package reconcile

import (
	"fmt"
	"strings"

	"github.com/nconklindev/modelswap/internal/loader"
	"github.com/nconklindev/modelswap/internal/types"

	"github.com/xuri/excelize/v2"
)

// KeyColumns returns the 0-based indices of headers starting with prefix.
// The prefix match is case-sensitive.
func KeyColumns(t *types.Table, prefix string) []int {
	var cols []int
	for i, h := range t.Headers {
		if strings.HasPrefix(h, prefix) {
			cols = append(cols, i)
		}
	}
	return cols
}

// SourceIdentifiers returns the source side of every pair.
func SourceIdentifiers(pairs []types.TranslationPair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Source
	}
	return out
}

// containsAny is the scanner's loose match: case-insensitive substring.
func containsAny(value string, needles []string) bool {
	v := strings.ToLower(value)
	for _, n := range needles {
		if n != "" && strings.Contains(v, n) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// ScanKeyColumns reports which key columns hold any of ids as a substring.
// It only informs the operator; substitution itself matches exactly.
func ScanKeyColumns(t *types.Table, keyCols []int, ids []string) types.ScanReport {
	needles := lowerAll(ids)
	report := types.ScanReport{}

	for _, col := range keyCols {
		report.KeyColumns = append(report.KeyColumns, t.Headers[col])
		for _, row := range t.Rows {
			if containsAny(row[col], needles) {
				report.MatchedColumns = append(report.MatchedColumns, t.Headers[col])
				report.Found = true
				break
			}
		}
	}
	return report
}

// ScanSheets looks for ids in the data rows of every sheet of a workbook and
// returns the names of the sheets that contain one.
func ScanSheets(path string, ids []string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	needles := lowerAll(ids)
	var matched []string
	for _, sheet := range f.GetSheetList() {
		rows, err := loader.SheetRows(f, sheet)
		if err != nil {
			return matched, fmt.Errorf("read sheet %q in %s: %w", sheet, path, err)
		}
		if sheetContains(rows, needles) {
			matched = append(matched, sheet)
		}
	}
	return matched, nil
}

// sheetContains checks the rows below the sheet's header row.
func sheetContains(rows [][]string, needles []string) bool {
	header := loader.HeaderRow(rows)
	if header == -1 {
		return false
	}
	for _, row := range rows[header+1:] {
		for _, cell := range row {
			if containsAny(cell, needles) {
				return true
			}
		}
	}
	return false
}
