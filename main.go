package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/logging"
	"github.com/nconklindev/modelswap/internal/pipeline"
	"github.com/nconklindev/modelswap/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	plain      bool
	overrides  = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "modelswap",
	Short: "Rewrite s2 product model identifiers to their s3 equivalents",
	Long: `modelswap reads an abbreviation table, a description-to-identifier mapping
table and a main workbook, builds source -> target identifier pairs and
rewrites matching cells in the main sheet's Key* columns.

The result is a copy of the main workbook with every changed cell highlighted.

Without --plain an interactive view shows progress and the summary. If no
--main workbook is given and no config file sets one, a file picker asks for it.`,
	Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.BoolVar(&plain, "plain", false, "run without the interactive view and print the summary")

	f.StringVar(&overrides.TargetVariation, "target", overrides.TargetVariation, "target variation tag")
	f.StringVar(&overrides.SourceVariation, "source", overrides.SourceVariation, "source variation tag")
	f.StringVar(&overrides.Abbreviations.Path, "abbr", overrides.Abbreviations.Path, "abbreviations file (.xlsx or .csv)")
	f.StringVar(&overrides.Abbreviations.Sheet, "abbr-sheet", overrides.Abbreviations.Sheet, "abbreviations sheet")
	f.StringVar(&overrides.Mapping.Path, "mapping", overrides.Mapping.Path, "mapping file (.xlsx or .csv)")
	f.StringVar(&overrides.Mapping.Sheet, "mapping-sheet", overrides.Mapping.Sheet, "mapping sheet")
	f.StringVar(&overrides.MappingKeyColumn, "mapping-key", overrides.MappingKeyColumn, "mapping column matched against descriptions (Description or ModelNumber)")
	f.StringVar(&overrides.Main.Path, "main", overrides.Main.Path, "main workbook")
	f.StringVar(&overrides.Main.Sheet, "main-sheet", overrides.Main.Sheet, "main sheet")
	f.StringVarP(&overrides.Output, "output", "o", overrides.Output, "annotated output workbook")
	f.StringVar(&overrides.Report, "report", overrides.Report, "optional CSV replacement report")
	f.StringVar(&overrides.KeyColumnPrefix, "key-prefix", overrides.KeyColumnPrefix, "prefix of the columns to rewrite")
	f.StringVar(&overrides.HighlightColor, "highlight", overrides.HighlightColor, "hex fill for changed cells")
	f.StringVar(&overrides.Logging.Level, "log-level", overrides.Logging.Level, "debug, info, warn or error")
	f.StringVar(&overrides.Logging.Format, "log-format", overrides.Logging.Format, "console or json")
	f.StringVar(&overrides.Logging.File, "log-file", overrides.Logging.File, "write logs to this file instead of stderr")
}

// resolveConfig loads the config file and applies every flag the user set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("target", &cfg.TargetVariation, overrides.TargetVariation)
	set("source", &cfg.SourceVariation, overrides.SourceVariation)
	set("abbr", &cfg.Abbreviations.Path, overrides.Abbreviations.Path)
	set("abbr-sheet", &cfg.Abbreviations.Sheet, overrides.Abbreviations.Sheet)
	set("mapping", &cfg.Mapping.Path, overrides.Mapping.Path)
	set("mapping-sheet", &cfg.Mapping.Sheet, overrides.Mapping.Sheet)
	set("mapping-key", &cfg.MappingKeyColumn, overrides.MappingKeyColumn)
	set("main", &cfg.Main.Path, overrides.Main.Path)
	set("main-sheet", &cfg.Main.Sheet, overrides.Main.Sheet)
	set("output", &cfg.Output, overrides.Output)
	set("report", &cfg.Report, overrides.Report)
	set("key-prefix", &cfg.KeyColumnPrefix, overrides.KeyColumnPrefix)
	set("highlight", &cfg.HighlightColor, overrides.HighlightColor)
	set("log-level", &cfg.Logging.Level, overrides.Logging.Level)
	set("log-format", &cfg.Logging.Format, overrides.Logging.Format)
	set("log-file", &cfg.Logging.File, overrides.Logging.File)

	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if plain {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		result, err := pipeline.Run(cfg, logger, nil)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.Summary(result, cfg, 0))
		return nil
	}

	// The alt screen owns the terminal, so logs only go to an explicit file.
	logger := zap.NewNop()
	if cfg.Logging.File != "" {
		if logger, err = logging.New(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	pickMain := configPath == "" && !cmd.Flags().Changed("main")
	p := tea.NewProgram(ui.InitialModel(cfg, logger, pickMain), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.Model); ok {
		return m.Err()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
