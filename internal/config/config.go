// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package config

// Config is the root configuration for a pipeline run.
type Config struct {
	Events   EventsConfig   `koanf:"events"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Subset   SubsetConfig   `koanf:"subset"`
	Lasso    LassoConfig    `koanf:"lasso"`
	Tree     TreeConfig     `koanf:"tree"`
	Report   ReportConfig   `koanf:"report"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// EventsConfig describes where the raw event table is read from.
type EventsConfig struct {
	// Source selects the reader: "csv" or "duckdb".
	Source string `koanf:"source"`

	// Path is the event file: a CSV file for the csv source, or a
	// DuckDB/SQLite/CSV file for the duckdb source.
	Path string `koanf:"path"`

	// Table is the table holding events when reading a database file.
	// Ignored by the csv source.
	Table string `koanf:"table"`
}

// PipelineConfig holds run-wide modeling settings.
type PipelineConfig struct {
	// UnitPrice is the monthly subscription price used to monetize
	// the subscription-length target.
	UnitPrice float64 `koanf:"unit_price"`

	// TestFraction is the share of aggregate rows held out for
	// evaluation. Typical: 0.2.
	TestFraction float64 `koanf:"test_fraction"`

	// Seed drives the train/test split and the shared CV folds.
	// The same seed reproduces the identical partition.
	Seed int64 `koanf:"seed"`

	// CVFolds is the number of cross-validation folds shared by the
	// lasso fitter and the tree pruner.
	CVFolds int `koanf:"cv_folds"`
}

// SubsetConfig configures the exhaustive feature-subset search.
type SubsetConfig struct {
	// MaxFeatures caps the expanded feature count the exhaustive
	// search will accept. The search enumerates 2^p - 1 subsets, so
	// this stays small; raising it is a deliberate decision, not a
	// tuning knob.
	MaxFeatures int `koanf:"max_features"`
}

// LassoConfig configures the L1-penalized linear fitter.
type LassoConfig struct {
	// NumLambdas is the number of penalty strengths on the descending
	// geometric grid.
	NumLambdas int `koanf:"num_lambdas"`

	// LambdaMinRatio is the ratio of the smallest to the largest
	// penalty on the grid.
	LambdaMinRatio float64 `koanf:"lambda_min_ratio"`

	// MaxIterations bounds coordinate-descent sweeps per penalty.
	MaxIterations int `koanf:"max_iterations"`

	// Tolerance is the convergence threshold on the maximum
	// coefficient change per sweep.
	Tolerance float64 `koanf:"tolerance"`
}

// TreeConfig configures the regression-tree fitter.
type TreeConfig struct {
	// MinSplit is the minimum node size eligible for splitting.
	MinSplit int `koanf:"min_split"`

	// MinLeaf is the minimum rows allowed in a child node.
	MinLeaf int `koanf:"min_leaf"`

	// MaxDepth bounds tree depth. 0 means unbounded.
	MaxDepth int `koanf:"max_depth"`

	// MinGain is the minimum error reduction for a split, as a
	// fraction of the root node's squared error.
	MinGain float64 `koanf:"min_gain"`
}

// ReportConfig describes where the run report is written.
type ReportConfig struct {
	// Path is the output file for the JSON report. "-" writes to
	// stdout.
	Path string `koanf:"path"`

	// Pretty enables indented JSON output.
	Pretty bool `koanf:"pretty"`
}

// LoggingConfig mirrors logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Events: EventsConfig{
			Source: "csv",
			Path:   "",
			Table:  "events",
		},
		Pipeline: PipelineConfig{
			UnitPrice:    10.0,
			TestFraction: 0.2,
			Seed:         42,
			CVFolds:      10,
		},
		Subset: SubsetConfig{
			MaxFeatures: 16,
		},
		Lasso: LassoConfig{
			NumLambdas:     100,
			LambdaMinRatio: 1e-4,
			MaxIterations:  1000,
			Tolerance:      1e-7,
		},
		Tree: TreeConfig{
			MinSplit: 20,
			MinLeaf:  7,
			MaxDepth: 30,
			MinGain:  0.01,
		},
		Report: ReportConfig{
			Path:   "-",
			Pretty: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
