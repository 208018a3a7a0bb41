package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/reconcile"
	"github.com/nconklindev/modelswap/internal/types"

	"github.com/google/go-cmp/cmp"
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

// scenario builds the three inputs of the documented end-to-end example.
func scenario(t *testing.T, abbreviations [][]interface{}) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Abbreviations = config.Source{Path: filepath.Join(dir, "abbreviations.xlsx"), Sheet: "Sheet1"}
	cfg.Mapping = config.Source{Path: filepath.Join(dir, "mappings.xlsx"), Sheet: "Sheet1"}
	cfg.Main = config.Source{Path: filepath.Join(dir, "base.xlsx"), Sheet: "ProductModelPickOptions"}
	cfg.Output = filepath.Join(dir, "out", "output.xlsx")
	cfg.Report = filepath.Join(dir, "replacements.csv")

	writeWorkbook(t, cfg.Abbreviations.Path, "Sheet1", abbreviations)
	writeWorkbook(t, cfg.Mapping.Path, "Sheet1", [][]interface{}{
		{"Description", "ModelNumber", "ProductModelID"},
		{"Widget", "W-1", "100"},
		{"Widget Pro", "W-2", "200"},
	})
	writeWorkbook(t, cfg.Main.Path, "ProductModelPickOptions", [][]interface{}{
		{"Name", "KeyModel", "Other"},
		{"first", "1000", "x"},
		{"second", "100", "100"},
	})
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2-east", "Widget"},
		{"A1", "s3-east", "Widget Pro"},
	})
	progress := make(chan types.Progress, 16)

	result, err := Run(cfg, zap.NewNop(), progress)
	require.NoError(t, err)
	close(progress)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []types.TranslationPair{{Source: "100", Target: "200", Code: "A1"}}, result.Pairs)
	assert.Empty(t, result.Misses)
	assert.True(t, result.Scan.Found)
	assert.Equal(t, []string{"KeyModel"}, result.Scan.KeyColumns)

	want := []types.ReplacementRecord{
		{Row: 3, Column: 2, ColumnName: "KeyModel", OldValue: "100", NewValue: "200"},
	}
	if diff := cmp.Diff(want, result.Replacements); diff != "" {
		t.Errorf("replacements mismatch (-want +got):\n%s", diff)
	}

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(cfg.Main.Sheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "KeyModel", "Other"},
		{"first", "1000", "x"},
		{"second", "200", "100"},
	}, rows)

	styleID, err := f.GetCellStyle(cfg.Main.Sheet, "B3")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.Len(t, style.Fill.Color, 1)
	assert.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), "FFFF99"))

	otherID, err := f.GetCellStyle(cfg.Main.Sheet, "C3")
	require.NoError(t, err)
	assert.NotEqual(t, styleID, otherID)

	report, err := os.ReadFile(cfg.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "3,2,KeyModel,100,200")

	var stages []string
	for p := range progress {
		stages = append(stages, p.Stage)
	}
	assert.Equal(t, []string{StageLoad, StageFilter, StageTranslate, StageScan, StageSubstitute, StageWrite, StageDone}, stages)
}

func TestRunHeaderOnSecondRowShiftsRecords(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2", "Widget"},
		{"A1", "s3", "Widget Pro"},
	})
	writeWorkbook(t, cfg.Main.Path, cfg.Main.Sheet, [][]interface{}{
		{nil},
		{"Name", "KeyModel"},
		{"first", "100"},
	})

	result, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Replacements, 1)
	assert.Equal(t, 3, result.Replacements[0].Row)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(cfg.Main.Sheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "200", v)
}

func TestRunAbortsWithoutTargetVariation(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2-east", "Widget"},
	})

	result, err := Run(cfg, zap.NewNop(), nil)
	require.ErrorIs(t, err, reconcile.ErrEmptyPartition)
	assert.Nil(t, result)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr), "no output may be written")
}

func TestRunAbortsWithoutTranslations(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2", "Widget"},
		{"A1", "s3", "Unmapped"},
	})

	_, err := Run(cfg, zap.NewNop(), nil)
	require.ErrorIs(t, err, reconcile.ErrNoTranslations)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunNoMatchesWritesUnchangedCopy(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2", "Widget"},
		{"A1", "s3", "Widget Pro"},
	})
	writeWorkbook(t, cfg.Main.Path, cfg.Main.Sheet, [][]interface{}{
		{"Name", "KeyModel"},
		{"first", "999"},
	})

	result, err := Run(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Replacements)
	assert.False(t, result.Scan.Found)
	assert.Empty(t, result.Scan.MatchedSheets)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(cfg.Main.Sheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "KeyModel"}, {"first", "999"}}, rows)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Output = ""

	_, err := Run(cfg, zap.NewNop(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunReportFailureRemovesOutput(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2", "Widget"},
		{"A1", "s3", "Widget Pro"},
	})
	// A regular file where the report directory should be.
	blocker := filepath.Join(filepath.Dir(cfg.Report), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Report = filepath.Join(blocker, "replacements.csv")

	result, err := Run(cfg, zap.NewNop(), nil)
	require.Error(t, err)
	assert.Nil(t, result)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr), "no output may be left after a fatal error")
}

func TestRunLeavesBooleanKeyCellsAlone(t *testing.T) {
	cfg := scenario(t, [][]interface{}{
		{"code", "variation", "description"},
		{"A1", "s2", "Widget"},
		{"A1", "s3", "Widget Pro"},
	})
	writeWorkbook(t, cfg.Mapping.Path, "Sheet1", [][]interface{}{
		{"Description", "ModelNumber", "ProductModelID"},
		{"Widget", "W-1", "1"},
		{"Widget Pro", "W-2", "2"},
	})
	writeWorkbook(t, cfg.Main.Path, cfg.Main.Sheet, [][]interface{}{
		{"Name", "KeyFlag", "KeyModel"},
		{"first", true, "1"},
	})

	result, err := Run(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, []types.ReplacementRecord{
		{Row: 2, Column: 3, ColumnName: "KeyModel", OldValue: "1", NewValue: "2"},
	}, result.Replacements)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	typ, err := f.GetCellType(cfg.Main.Sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeBool, typ)
}
