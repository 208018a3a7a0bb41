// Package config holds the run configuration: which tables to read, which
// variation tags to reconcile and where to write the annotated workbook.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source names one table: a file and, for workbooks, a sheet in it.
type Source struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
}

func (s Source) String() string {
	if s.Sheet == "" {
		return s.Path
	}
	return s.Path + "[" + s.Sheet + "]"
}

type Config struct {
	// TargetVariation is the tag of the naming scheme identifiers are rewritten to.
	TargetVariation string `yaml:"target_variation"`

	// SourceVariation is the tag of the naming scheme being replaced.
	SourceVariation string `yaml:"source_variation"`

	Abbreviations Source `yaml:"abbreviations"`
	Mapping       Source `yaml:"mapping"`
	Main          Source `yaml:"main"`

	// MappingKeyColumn is the mapping table column descriptions are matched against.
	MappingKeyColumn string `yaml:"mapping_key_column"`

	// KeyColumnPrefix selects the main table columns that are rewritten.
	KeyColumnPrefix string `yaml:"key_column_prefix"`

	// HighlightColor is the RGB hex fill applied to changed cells.
	HighlightColor string `yaml:"highlight_color"`

	Output string `yaml:"output"`

	// Report is an optional CSV file receiving the replacement log.
	Report string `yaml:"report"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`   // empty means stderr
}

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		TargetVariation:  "s3",
		SourceVariation:  "s2",
		Abbreviations:    Source{Path: "./resources/abbreviations.xlsx", Sheet: "Sheet1"},
		Mapping:          Source{Path: "./resources/mappings.xlsx", Sheet: "Sheet1"},
		Main:             Source{Path: "./resources/base.xlsx", Sheet: "ProductModelPickOptions"},
		MappingKeyColumn: "Description",
		KeyColumnPrefix:  "Key",
		HighlightColor:   "FFFF99",
		Output:           "output.xlsx",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TargetVariation) == "" {
		errs = append(errs, errors.New("target variation is required"))
	}
	if strings.TrimSpace(c.SourceVariation) == "" {
		errs = append(errs, errors.New("source variation is required"))
	}
	if c.TargetVariation != "" && strings.EqualFold(c.TargetVariation, c.SourceVariation) {
		errs = append(errs, fmt.Errorf("target and source variation are both %q", c.TargetVariation))
	}

	for _, src := range []struct {
		name string
		Source
	}{
		{"abbreviations", c.Abbreviations},
		{"mapping", c.Mapping},
		{"main", c.Main},
	} {
		if src.Path == "" {
			errs = append(errs, fmt.Errorf("%s path is required", src.name))
		}
	}
	if c.Main.Sheet == "" {
		errs = append(errs, errors.New("main sheet is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	switch c.MappingKeyColumn {
	case "Description", "ModelNumber":
	default:
		errs = append(errs, fmt.Errorf("mapping key column must be Description or ModelNumber, got %q", c.MappingKeyColumn))
	}
	if c.KeyColumnPrefix == "" {
		errs = append(errs, errors.New("key column prefix is required"))
	}
	if !hexColor.MatchString(c.HighlightColor) {
		errs = append(errs, fmt.Errorf("highlight color %q is not a 6-digit hex value", c.HighlightColor))
	}

	return errors.Join(errs...)
}
