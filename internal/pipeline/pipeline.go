// Package pipeline runs the reconciliation end to end: load the three tables,
// resolve translations, rewrite key columns and write the annotated workbook.
package pipeline

import (
	"fmt"
	"os"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/loader"
	"github.com/nconklindev/modelswap/internal/reconcile"
	"github.com/nconklindev/modelswap/internal/types"
	"github.com/nconklindev/modelswap/internal/writer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage names reported on the progress channel, in run order.
const (
	StageLoad       = "Loading tables"
	StageFilter     = "Filtering variations"
	StageTranslate  = "Building translations"
	StageScan       = "Scanning key columns"
	StageSubstitute = "Substituting identifiers"
	StageWrite      = "Writing workbook"
	StageDone       = "Done"
)

var stages = []string{StageLoad, StageFilter, StageTranslate, StageScan, StageSubstitute, StageWrite, StageDone}

// Run executes one reconciliation. Fatal conditions return before the output
// file is created. progressChan may be nil; sends never block.
func Run(cfg *config.Config, logger *zap.Logger, progressChan chan<- types.Progress) (*types.RunResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	result := &types.RunResult{RunID: uuid.New().String()}
	logger = logger.With(zap.String("run_id", result.RunID))

	step := 0
	report := func(stage string) {
		logger.Debug("stage", zap.String("stage", stage))
		fraction := float64(step) / float64(len(stages)-1)
		step++
		if progressChan == nil {
			return
		}
		select {
		case progressChan <- types.Progress{Stage: stage, Fraction: fraction}:
		default:
		}
	}

	report(StageLoad)
	tables, err := loader.LoadTables(cfg, logger)
	if err != nil {
		return nil, err
	}

	report(StageFilter)
	target, err := reconcile.FilterVariation(tables.Abbreviations, cfg.TargetVariation)
	if err != nil {
		logger.Warn("variation has no rows",
			zap.String("variation", cfg.TargetVariation),
			zap.Strings("available", reconcile.Variations(tables.Abbreviations)))
		return nil, err
	}
	source, err := reconcile.FilterVariation(tables.Abbreviations, cfg.SourceVariation)
	if err != nil {
		logger.Warn("variation has no rows",
			zap.String("variation", cfg.SourceVariation),
			zap.Strings("available", reconcile.Variations(tables.Abbreviations)))
		return nil, err
	}
	for _, v := range []reconcile.Variation{{Tag: cfg.TargetVariation, Rows: target}, {Tag: cfg.SourceVariation, Rows: source}} {
		if dups := reconcile.DuplicateCodes(v.Rows); len(dups) > 0 {
			logger.Warn("duplicate entries for codes",
				zap.String("variation", v.Tag),
				zap.Strings("codes", dups))
			result.Duplicates = append(result.Duplicates, types.Duplicates{Variation: v.Tag, Codes: dups})
		}
	}

	report(StageTranslate)
	ids := reconcile.IdentifierIndex(tables.Mapping, cfg.MappingKeyColumn)
	tr, err := reconcile.BuildTranslations(
		reconcile.Variation{Tag: cfg.SourceVariation, Rows: source},
		reconcile.Variation{Tag: cfg.TargetVariation, Rows: target},
		ids,
	)
	if tr != nil {
		for _, m := range tr.Misses {
			logger.Warn(reconcile.MissMessage(m),
				zap.String("variation", m.Variation),
				zap.String("code", m.Code),
				zap.String("stage", m.Stage))
		}
		if len(tr.Misses) > 0 {
			logger.Warn("total missing mappings", zap.Int("count", len(tr.Misses)))
		}
		result.Misses = tr.Misses
	}
	if err != nil {
		return nil, err
	}
	result.Pairs = tr.Pairs
	for _, p := range tr.Pairs {
		logger.Info("translation pair",
			zap.String("code", p.Code),
			zap.String(cfg.SourceVariation, p.Source),
			zap.String(cfg.TargetVariation, p.Target))
	}

	report(StageScan)
	keyCols := reconcile.KeyColumns(tables.Main, cfg.KeyColumnPrefix)
	sourceIDs := reconcile.SourceIdentifiers(tr.Pairs)
	result.Scan = reconcile.ScanKeyColumns(tables.Main, keyCols, sourceIDs)
	logger.Info("key columns detected", zap.Strings("columns", result.Scan.KeyColumns))
	for _, col := range result.Scan.MatchedColumns {
		logger.Info("source identifier found in column",
			zap.String("variation", cfg.SourceVariation),
			zap.String("column", col))
	}
	if !result.Scan.Found {
		logger.Warn("no source identifier found in key columns, checking all sheets",
			zap.Strings("identifiers", sourceIDs),
			zap.Strings("key_columns", result.Scan.KeyColumns),
			zap.String("sheet", cfg.Main.Sheet))
		sheets, err := reconcile.ScanSheets(cfg.Main.Path, sourceIDs)
		if err != nil {
			logger.Warn("sheet scan failed", zap.Error(err))
		}
		result.Scan.MatchedSheets = sheets
		for _, s := range sheets {
			logger.Info("source identifier found in sheet", zap.String("sheet", s))
		}
	}

	report(StageSubstitute)
	modified, log := reconcile.Substitute(tables.Main, keyCols, tr.Pairs)
	result.Replacements = log

	report(StageWrite)
	err = writer.WriteAnnotated(writer.Options{
		Source:         cfg.Main.Path,
		Sheet:          cfg.Main.Sheet,
		Output:         cfg.Output,
		HighlightColor: cfg.HighlightColor,
	}, modified, log)
	if err != nil {
		return nil, err
	}

	if cfg.Report != "" {
		if err := writer.WriteReport(cfg.Report, log); err != nil {
			// A failed run leaves no output behind.
			if rmErr := os.Remove(cfg.Output); rmErr != nil {
				logger.Warn("failed to remove output", zap.String("file", cfg.Output), zap.Error(rmErr))
			}
			return nil, err
		}
		result.ReportFile = cfg.Report
	}

	result.OutputFile = cfg.Output
	logger.Info("modified spreadsheet saved", zap.String("file", cfg.Output))
	if result.ReportFile != "" {
		logger.Info("replacement report saved", zap.String("file", cfg.Report))
	}

	for _, r := range log {
		logger.Info("replacement",
			zap.Int("row", r.Row),
			zap.Int("column", r.Column),
			zap.String("column_name", r.ColumnName),
			zap.String("old", r.OldValue),
			zap.String("new", r.NewValue))
	}
	logger.Info("replacements performed", zap.Int("count", len(log)))

	report(StageDone)
	return result, nil
}
