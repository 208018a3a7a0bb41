package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nconklindev/modelswap/internal/types"

	"github.com/xuri/excelize/v2"
)

// DefaultHighlight is the fill applied to rewritten cells.
const DefaultHighlight = "FFFF99"

type Options struct {
	Source         string // original workbook
	Sheet          string // sheet the table was read from
	Output         string
	HighlightColor string
}

// WriteAnnotated copies the source workbook to opts.Output with the values of
// every replaced cell taken from table. The sheet is edited in place, so the
// style at each coordinate, column widths, merges and the other sheets are
// kept. Replaced cells get the highlight fill on top of their own style.
func WriteAnnotated(opts Options, table *types.Table, log []types.ReplacementRecord) error {
	f, err := excelize.OpenFile(opts.Source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", opts.Source, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(opts.Sheet); idx == -1 {
		return fmt.Errorf("sheet %q not found in %s", opts.Sheet, opts.Source)
	}

	color := opts.HighlightColor
	if color == "" {
		color = DefaultHighlight
	}
	hl := newHighlighter(f, opts.Sheet, color)

	for _, rec := range log {
		cell, err := excelize.CoordinatesToCellName(rec.Column, rec.Row)
		if err != nil {
			return err
		}
		value, ok := tableValue(table, rec)
		if !ok {
			return fmt.Errorf("replacement at %s is outside the table", cell)
		}
		if err := setValue(f, opts.Sheet, cell, value); err != nil {
			return fmt.Errorf("write %s!%s: %w", opts.Sheet, cell, err)
		}
		if err := hl.apply(cell); err != nil {
			return fmt.Errorf("highlight %s!%s: %w", opts.Sheet, cell, err)
		}
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to save %s: %w", opts.Output, err)
		}
	}
	if err := f.SaveAs(opts.Output); err != nil {
		return fmt.Errorf("failed to save %s: %w", opts.Output, err)
	}
	return nil
}

// tableValue reads the final value of the cell a record points at. Several
// records may point at one cell; the table holds the last write.
func tableValue(t *types.Table, rec types.ReplacementRecord) (string, bool) {
	i := rec.Row - t.HeaderRow - 2
	j := rec.Column - 1
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return "", false
	}
	return t.Rows[i][j], true
}

// setValue keeps numeric cells numeric when the new identifier is a plain
// number; everything else is written as a string so leading zeros survive.
func setValue(f *excelize.File, sheet, cell, value string) error {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return err
	}
	if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
		if n, err := strconv.ParseFloat(value, 64); err == nil && strconv.FormatFloat(n, 'f', -1, 64) == value {
			return f.SetCellValue(sheet, cell, n)
		}
	}
	return f.SetCellStr(sheet, cell, value)
}

// highlighter derives one filled style per original style id.
type highlighter struct {
	f       *excelize.File
	sheet   string
	color   string
	derived map[int]int
}

func newHighlighter(f *excelize.File, sheet, color string) *highlighter {
	return &highlighter{f: f, sheet: sheet, color: color, derived: make(map[int]int)}
}

func (h *highlighter) apply(cell string) error {
	orig, err := h.f.GetCellStyle(h.sheet, cell)
	if err != nil {
		return err
	}

	id, ok := h.derived[orig]
	if !ok {
		// GetStyle builds a fresh Style, so the original entry is not shared.
		style, err := h.f.GetStyle(orig)
		if err != nil {
			return err
		}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{h.color}}
		if id, err = h.f.NewStyle(style); err != nil {
			return err
		}
		h.derived[orig] = id
		// A cell already carrying a derived style maps onto itself.
		h.derived[id] = id
	}
	return h.f.SetCellStyle(h.sheet, cell, cell, id)
}
