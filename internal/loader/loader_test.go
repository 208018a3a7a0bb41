package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeWorkbook(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Abbreviations = config.Source{Path: filepath.Join(dir, "abbreviations.xlsx"), Sheet: "Sheet1"}
	cfg.Mapping = config.Source{Path: filepath.Join(dir, "mappings.xlsx"), Sheet: "Sheet1"}
	cfg.Main = config.Source{Path: filepath.Join(dir, "base.xlsx"), Sheet: "ProductModelPickOptions"}
	cfg.Output = filepath.Join(dir, "output.xlsx")

	writeWorkbook(t, cfg.Abbreviations.Path, "Sheet1", [][]interface{}{
		{"Abbrev", "Series", "Long name", "Notes"},
		{"A1", "s2-east", "Widget", "n1"},
		{nil, nil, nil, nil},
		{"A1", "s3-east", "Widget Pro"},
	})
	writeWorkbook(t, cfg.Mapping.Path, "Sheet1", [][]interface{}{
		{"Description", "ModelNumber", "ProductModelID"},
		{"Widget", "W-1", 100},
		{"Widget Pro", "W-2", "0200"},
	})
	writeWorkbook(t, cfg.Main.Path, "ProductModelPickOptions", [][]interface{}{
		{"Name", "KeyModel"},
		{"row one", 100},
		{"row two"},
	})
	return cfg
}

func TestLoadTables(t *testing.T) {
	cfg := fixture(t)

	tables, err := LoadTables(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []types.AbbreviationRow{
		{Code: "A1", Variation: "s2-east", Description: "Widget"},
		{Code: "A1", Variation: "s3-east", Description: "Widget Pro"},
	}, tables.Abbreviations)

	assert.Equal(t, []types.MappingRow{
		{Description: "Widget", ModelNumber: "W-1", ProductModelID: "100"},
		{Description: "Widget Pro", ModelNumber: "W-2", ProductModelID: "0200"},
	}, tables.Mapping)

	assert.Equal(t, "ProductModelPickOptions", tables.Main.Name)
	assert.Equal(t, []string{"Name", "KeyModel"}, tables.Main.Headers)
	assert.Equal(t, [][]string{{"row one", "100"}, {"row two", ""}}, tables.Main.Rows)
	assert.Equal(t, 0, tables.Main.HeaderRow)
}

func TestLoadTablesFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := fixture(t)
		cfg.Mapping.Path = filepath.Join(t.TempDir(), "absent.xlsx")

		_, err := LoadTables(cfg, zap.NewNop())
		require.ErrorIs(t, err, ErrFileNotFound)
		assert.Contains(t, err.Error(), "mapping file")
		assert.Contains(t, err.Error(), "absent.xlsx")
	})

	t.Run("missing sheet", func(t *testing.T) {
		cfg := fixture(t)
		cfg.Main.Sheet = "Other"

		_, err := LoadTables(cfg, zap.NewNop())
		require.ErrorIs(t, err, ErrSheetNotFound)
		assert.Contains(t, err.Error(), `"Other"`)
	})

	t.Run("mapping schema", func(t *testing.T) {
		cfg := fixture(t)
		writeWorkbook(t, cfg.Mapping.Path, "Sheet1", [][]interface{}{
			{"Desc", "ModelNumber", "ID"},
			{"Widget", "W-1", 100},
		})

		_, err := LoadTables(cfg, zap.NewNop())
		require.ErrorIs(t, err, ErrSchema)
		assert.Contains(t, err.Error(), "[Description ProductModelID]")
	})

	t.Run("too few abbreviation columns", func(t *testing.T) {
		cfg := fixture(t)
		writeWorkbook(t, cfg.Abbreviations.Path, "Sheet1", [][]interface{}{
			{"code", "variation"},
			{"A1", "s2"},
		})

		_, err := LoadTables(cfg, zap.NewNop())
		require.ErrorIs(t, err, ErrSchema)
		assert.Contains(t, err.Error(), "found 2")
	})

	t.Run("main must be a workbook", func(t *testing.T) {
		cfg := fixture(t)
		path := filepath.Join(t.TempDir(), "base.csv")
		require.NoError(t, os.WriteFile(path, []byte("Name,KeyModel\nx,1\n"), 0o644))
		cfg.Main = config.Source{Path: path}

		_, err := LoadTables(cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "workbook")
	})
}

func TestMappingRowsKeyColumn(t *testing.T) {
	table := &types.Table{
		Headers: []string{"Description", "ProductModelID"},
		Rows:    [][]string{{"Widget", "100"}},
	}

	_, err := MappingRows(table, "ModelNumber")
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "[ModelNumber]")

	rows, err := MappingRows(table, "Description")
	require.NoError(t, err)
	assert.Equal(t, []types.MappingRow{{Description: "Widget", ProductModelID: "100"}}, rows)
}

func TestReadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abbreviations.csv")
	data := "\ncode,variation,description\nA1,s2,Widget,extra\n,,\nB2,s3\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := ReadTable(config.Source{Path: path, Sheet: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "abbreviations", table.Name)
	assert.Equal(t, []string{"code", "variation", "description", ""}, table.Headers)
	assert.Equal(t, [][]string{
		{"A1", "s2", "Widget", "extra"},
		{"", "", "", ""},
		{"B2", "s3", "", ""},
	}, table.Rows)

	abbrs, err := Abbreviations(table)
	require.NoError(t, err)
	assert.Len(t, abbrs, 2)
	assert.Len(t, table.Rows, 2)
}

func TestReadTableHeaderOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.xlsx")
	writeWorkbook(t, path, "Data", [][]interface{}{
		{nil},
		{"Name", "KeyModel"},
		{"a", 5},
	})

	table, err := ReadTable(config.Source{Path: path, Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, 1, table.HeaderRow)
	assert.Equal(t, 3, table.SheetRow(0))
	assert.Equal(t, [][]string{{"a", "5"}}, table.Rows)
}

func TestReadTableRendersBooleans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.xlsx")
	writeWorkbook(t, path, "Data", [][]interface{}{
		{"Name", "KeyFlag", "KeyModel"},
		{"a", true, 1},
		{"b", false, 0},
	})

	table, err := ReadTable(config.Source{Path: path, Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"a", "TRUE", "1"},
		{"b", "FALSE", "0"},
	}, table.Rows)
}

func TestHeaderRow(t *testing.T) {
	assert.Equal(t, 0, HeaderRow([][]string{{"Name"}, {"a"}}))
	assert.Equal(t, 2, HeaderRow([][]string{{}, {"", " "}, {"Name"}}))
	assert.Equal(t, -1, HeaderRow([][]string{{""}}))
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := ReadTable(config.Source{Path: "tables.ods"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, "Models", [][]interface{}{{"x"}})

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Models"}, names)
}
