// Package config holds the run parameters of the subset-regression pipeline.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/stackreg/linear"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
	"github.com/YuminosukeSato/stackreg/pkg/log"
)

// Config is the full pipeline configuration. Zero fields in a YAML file keep their
// default values.
type Config struct {
	// Thresholds are the critical values of the diagnostic tests.
	Thresholds linear.Thresholds `json:"thresholds" yaml:"thresholds"`

	// TrainingSplit is the share of leading rows used for fitting; the rest is held out.
	TrainingSplit float64 `json:"training_split" yaml:"training_split"`

	// Top is the number of best single models that enter the ensemble.
	Top int `json:"top" yaml:"top"`

	// TieWindow is the R² distance below which diagnostics decide the ranking.
	TieWindow float64 `json:"tie_window" yaml:"tie_window"`

	// SortColumn is the design column the Goldfeld–Quandt test sorts by, for base
	// and stacked models alike. 0 is the intercept and 1 the first variable; a
	// single-variable model has no other column.
	SortColumn int `json:"sort_column" yaml:"sort_column"`

	// Transforms lists the model families to build.
	Transforms []linear.Transform `json:"transforms" yaml:"transforms"`

	// Workers bounds evaluation concurrency. 0 uses every CPU, 1 is sequential.
	Workers int `json:"workers" yaml:"workers"`

	// ConditionTolerance overrides the singular-matrix condition number when positive.
	// 既定値 1e16 では大きな値の cube 族が全滅することがある。
	ConditionTolerance float64 `json:"condition_tolerance,omitempty" yaml:"condition_tolerance,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// MaxSortColumn is the last design column shared by every model: the intercept
// and one variable.
const MaxSortColumn = 1

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Thresholds:    linear.DefaultThresholds(),
		TrainingSplit: 0.6,
		Top:           10,
		TieWindow:     0.1,
		SortColumn:    1,
		Transforms:    linear.AllTransforms(),
		Workers:       0,
		LogLevel:      "info",
	}
}

// Parse overlays YAML data on the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewValidationError("config", "invalid YAML: "+err.Error(), len(data))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.NewDataUnavailableError(path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration as YAML to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create the config directory")
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "failed to marshal the default config")
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	switch {
	case c.TrainingSplit <= 0 || c.TrainingSplit >= 1:
		return errors.NewValidationError("training_split", "must be in (0, 1)", c.TrainingSplit)
	case c.Top < 2:
		return errors.NewValidationError("top", "at least two models are needed for a pair", c.Top)
	case c.TieWindow < 0:
		return errors.NewValidationError("tie_window", "must be non-negative", c.TieWindow)
	case c.SortColumn < 0 || c.SortColumn > MaxSortColumn:
		return errors.NewValidationError("sort_column", "must be 0 or 1, the columns every model has", c.SortColumn)
	case len(c.Transforms) == 0:
		return errors.NewValidationError("transforms", "at least one transform is required", c.Transforms)
	case c.Workers < 0:
		return errors.NewValidationError("workers", "must be non-negative", c.Workers)
	case c.ConditionTolerance < 0:
		return errors.NewValidationError("condition_tolerance", "must be non-negative", c.ConditionTolerance)
	}
	seen := make(map[linear.Transform]bool, len(c.Transforms))
	for _, t := range c.Transforms {
		if seen[t] {
			return errors.NewValidationError("transforms", "duplicate transform", t.String())
		}
		seen[t] = true
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}
