package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/types"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSchema        = errors.New("schema violation")
)

// SampleRows is how many rows of each table are logged after loading.
const SampleRows = 5

// Canonical names given to the first three abbreviation columns.
var AbbreviationHeaders = []string{"code", "variation", "description"}

// Columns the mapping table must carry.
var RequiredMappingColumns = []string{"Description", "ProductModelID"}

// Tables is everything the reconcile stages read.
type Tables struct {
	Abbreviations []types.AbbreviationRow
	Mapping       []types.MappingRow
	Main          *types.Table
}

// LoadTables reads the three configured sources. Any missing file, sheet or
// required column is fatal.
func LoadTables(cfg *config.Config, logger *zap.Logger) (*Tables, error) {
	for _, src := range []struct {
		name string
		config.Source
	}{
		{"abbreviations", cfg.Abbreviations},
		{"mapping", cfg.Mapping},
		{"main", cfg.Main},
	} {
		if err := checkSource(src.name, src.Source, logger); err != nil {
			return nil, err
		}
	}
	if !isWorkbook(cfg.Main.Path) {
		return nil, fmt.Errorf("main file %s: must be an .xlsx workbook", cfg.Main.Path)
	}

	abbrTable, err := ReadTable(cfg.Abbreviations)
	if err != nil {
		return nil, fmt.Errorf("load abbreviations: %w", err)
	}
	abbrs, err := Abbreviations(abbrTable)
	if err != nil {
		return nil, fmt.Errorf("load abbreviations %s: %w", cfg.Abbreviations, err)
	}
	logSample(logger, "abbreviations", abbrTable)

	mapTable, err := ReadTable(cfg.Mapping)
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	mapping, err := MappingRows(mapTable, cfg.MappingKeyColumn)
	if err != nil {
		return nil, fmt.Errorf("load mapping %s: %w", cfg.Mapping, err)
	}
	logger.Info("mapping table loaded",
		zap.Strings("columns", mapTable.Headers),
		zap.Int("rows", len(mapping)))

	mainTable, err := ReadTable(cfg.Main)
	if err != nil {
		return nil, fmt.Errorf("load main: %w", err)
	}
	logSample(logger, "main", mainTable)

	return &Tables{
		Abbreviations: abbrs,
		Mapping:       mapping,
		Main:          mainTable,
	}, nil
}

// checkSource fails with a named error when the file or sheet is absent and
// logs the sheets a workbook offers.
func checkSource(name string, src config.Source, logger *zap.Logger) error {
	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s file %q: %w", name, src.Path, ErrFileNotFound)
		}
		return fmt.Errorf("%s file %q: %w", name, src.Path, err)
	}
	if !isWorkbook(src.Path) {
		return nil
	}

	sheets, err := SheetNames(src.Path)
	if err != nil {
		return fmt.Errorf("%s file %q: %w", name, src.Path, err)
	}
	logger.Info("available worksheets",
		zap.String("table", name),
		zap.String("file", src.Path),
		zap.Strings("sheets", sheets))

	for _, s := range sheets {
		if s == src.Sheet {
			return nil
		}
	}
	return fmt.Errorf("sheet %q in %s file %q: %w", src.Sheet, name, src.Path, ErrSheetNotFound)
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// ReadTable loads a source as a table. Workbooks are read by sheet; CSV
// files ignore the sheet name.
func ReadTable(src config.Source) (*types.Table, error) {
	ext := strings.ToLower(filepath.Ext(src.Path))

	var (
		rows [][]string
		err  error
		name = src.Sheet
	)
	switch ext {
	case ".xlsx", ".xlsm":
		rows, err = readXLSXRows(src.Path, src.Sheet)
	case ".csv":
		rows, err = readCSVRows(src.Path)
		name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s", ext, src.Path)
	}
	if err != nil {
		return nil, err
	}

	headerIdx := HeaderRow(rows)
	if headerIdx == -1 {
		return nil, fmt.Errorf("%s: no header row found", src)
	}

	headers := rows[headerIdx]
	table := &types.Table{
		Name:      name,
		Headers:   append([]string(nil), headers...),
		HeaderRow: headerIdx,
	}
	for _, row := range rows[headerIdx+1:] {
		if len(row) > len(table.Headers) {
			for i := len(table.Headers); i < len(row); i++ {
				table.Headers = append(table.Headers, "")
			}
		}
		table.Rows = append(table.Rows, row)
	}
	for i, row := range table.Rows {
		table.Rows[i] = pad(row, len(table.Headers))
	}

	return table, nil
}

func readXLSXRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		return nil, fmt.Errorf("sheet %q in %q: %w", sheet, path, ErrSheetNotFound)
	}

	rows, err := SheetRows(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q in %s: %w", sheet, path, err)
	}
	return rows, nil
}

// SheetRows reads a sheet with raw values so identifiers stay free of number
// formatting. Boolean cells, stored raw as 1 or 0, are rendered TRUE or FALSE
// so they never compare equal to a numeric identifier.
func SheetRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		for c, v := range row {
			if v != "0" && v != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, err
			}
			if typ == excelize.CellTypeBool {
				rows[r][c] = boolString(v)
			}
		}
	}
	return rows, nil
}

func boolString(raw string) string {
	if raw == "1" {
		return "TRUE"
	}
	return "FALSE"
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return records, nil
}

// Abbreviations renames the first three columns to code, variation and
// description and drops rows that are entirely empty.
func Abbreviations(t *types.Table) ([]types.AbbreviationRow, error) {
	if len(t.Headers) < len(AbbreviationHeaders) {
		return nil, fmt.Errorf("expected at least %d columns, found %d: %w",
			len(AbbreviationHeaders), len(t.Headers), ErrSchema)
	}
	copy(t.Headers, AbbreviationHeaders)

	kept := t.Rows[:0]
	var out []types.AbbreviationRow
	for _, row := range t.Rows {
		if isEmptyRow(row) {
			continue
		}
		kept = append(kept, row)
		out = append(out, types.AbbreviationRow{
			Code:        row[0],
			Variation:   row[1],
			Description: row[2],
		})
	}
	t.Rows = kept

	return out, nil
}

// MappingRows checks the mapping schema and extracts its rows. keyColumn is
// the column descriptions are matched against and must exist as well.
func MappingRows(t *types.Table, keyColumn string) ([]types.MappingRow, error) {
	required := append([]string(nil), RequiredMappingColumns...)
	if keyColumn != "" && keyColumn != "Description" {
		required = append(required, keyColumn)
	}

	var missing []string
	for _, col := range required {
		if t.ColumnIndex(col) == -1 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %v: %w", missing, ErrSchema)
	}

	descIdx := t.ColumnIndex("Description")
	idIdx := t.ColumnIndex("ProductModelID")
	numIdx := t.ColumnIndex("ModelNumber")

	out := make([]types.MappingRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		if isEmptyRow(row) {
			continue
		}
		r := types.MappingRow{
			Description:    row[descIdx],
			ProductModelID: row[idIdx],
		}
		if numIdx != -1 {
			r.ModelNumber = row[numIdx]
		}
		out = append(out, r)
	}
	return out, nil
}

func logSample(logger *zap.Logger, name string, t *types.Table) {
	n := len(t.Rows)
	if n > SampleRows {
		n = SampleRows
	}
	logger.Info("table loaded",
		zap.String("table", name),
		zap.String("sheet", t.Name),
		zap.Strings("columns", t.Headers),
		zap.Int("rows", len(t.Rows)))
	for i := 0; i < n; i++ {
		logger.Debug("sample row",
			zap.String("table", name),
			zap.Int("row", t.SheetRow(i)),
			zap.Strings("values", t.Rows[i]))
	}
}

// HeaderRow returns the index of the first row holding any non-blank cell,
// or -1 when every row is blank.
func HeaderRow(rows [][]string) int {
	for i, row := range rows {
		if !isEmptyRow(row) {
			return i
		}
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
