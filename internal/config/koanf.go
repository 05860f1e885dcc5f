// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"ltvpipe.yaml",
	"ltvpipe.yml",
	"/etc/ltvpipe/config.yaml",
	"/etc/ltvpipe/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "LTV_CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if found)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables are skipped so that unrelated environment
// variables cannot pollute the configuration.
//
// Examples:
//   - EVENTS_PATH -> events.path
//   - TEST_FRACTION -> pipeline.test_fraction
//   - LASSO_NUM_LAMBDAS -> lasso.num_lambdas
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Event source mappings
		"events_source": "events.source",
		"events_path":   "events.path",
		"events_table":  "events.table",

		// Pipeline mappings
		"unit_price":    "pipeline.unit_price",
		"test_fraction": "pipeline.test_fraction",
		"split_seed":    "pipeline.seed",
		"cv_folds":      "pipeline.cv_folds",

		// Subset search mappings
		"subset_max_features": "subset.max_features",

		// Lasso mappings
		"lasso_num_lambdas":      "lasso.num_lambdas",
		"lasso_lambda_min_ratio": "lasso.lambda_min_ratio",
		"lasso_max_iterations":   "lasso.max_iterations",
		"lasso_tolerance":        "lasso.tolerance",

		// Tree mappings
		"tree_min_split": "tree.min_split",
		"tree_min_leaf":  "tree.min_leaf",
		"tree_max_depth": "tree.max_depth",
		"tree_min_gain":  "tree.min_gain",

		// Report mappings
		"report_path":   "report.path",
		"report_pretty": "report.pretty",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
