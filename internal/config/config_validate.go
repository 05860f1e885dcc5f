// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package config

import "fmt"

// Validate checks that the configuration is complete and internally
// consistent.
func (c *Config) Validate() error {
	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	if err := c.validateSubset(); err != nil {
		return err
	}

	if err := c.validateLasso(); err != nil {
		return err
	}

	if err := c.validateTree(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateEvents() error {
	switch c.Events.Source {
	case "csv", "duckdb":
	default:
		return fmt.Errorf("EVENTS_SOURCE must be csv or duckdb, got %q", c.Events.Source)
	}

	if c.Events.Path == "" {
		return fmt.Errorf("EVENTS_PATH is required")
	}

	if c.Events.Source == "duckdb" && c.Events.Table == "" {
		return fmt.Errorf("EVENTS_TABLE is required when EVENTS_SOURCE=duckdb")
	}

	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.UnitPrice <= 0 {
		return fmt.Errorf("UNIT_PRICE must be positive, got %g", c.Pipeline.UnitPrice)
	}

	if c.Pipeline.TestFraction <= 0 || c.Pipeline.TestFraction >= 1 {
		return fmt.Errorf("TEST_FRACTION must be in (0, 1), got %g", c.Pipeline.TestFraction)
	}

	if c.Pipeline.CVFolds < 2 {
		return fmt.Errorf("CV_FOLDS must be at least 2, got %d", c.Pipeline.CVFolds)
	}

	return nil
}

func (c *Config) validateSubset() error {
	if c.Subset.MaxFeatures < 1 {
		return fmt.Errorf("SUBSET_MAX_FEATURES must be at least 1, got %d", c.Subset.MaxFeatures)
	}

	// The subset search enumerates every feature combination. Beyond
	// ~20 features the 2^p cost is no longer a sub-second batch step.
	if c.Subset.MaxFeatures > 20 {
		return fmt.Errorf("SUBSET_MAX_FEATURES above 20 is not supported (exhaustive search is O(2^p)), got %d", c.Subset.MaxFeatures)
	}

	return nil
}

func (c *Config) validateLasso() error {
	if c.Lasso.NumLambdas < 2 {
		return fmt.Errorf("LASSO_NUM_LAMBDAS must be at least 2, got %d", c.Lasso.NumLambdas)
	}

	if c.Lasso.LambdaMinRatio <= 0 || c.Lasso.LambdaMinRatio >= 1 {
		return fmt.Errorf("LASSO_LAMBDA_MIN_RATIO must be in (0, 1), got %g", c.Lasso.LambdaMinRatio)
	}

	if c.Lasso.MaxIterations < 1 {
		return fmt.Errorf("LASSO_MAX_ITERATIONS must be positive, got %d", c.Lasso.MaxIterations)
	}

	if c.Lasso.Tolerance <= 0 {
		return fmt.Errorf("LASSO_TOLERANCE must be positive, got %g", c.Lasso.Tolerance)
	}

	return nil
}

func (c *Config) validateTree() error {
	if c.Tree.MinLeaf < 1 {
		return fmt.Errorf("TREE_MIN_LEAF must be at least 1, got %d", c.Tree.MinLeaf)
	}

	if c.Tree.MinSplit < 2*c.Tree.MinLeaf {
		return fmt.Errorf("TREE_MIN_SPLIT must be at least twice TREE_MIN_LEAF (%d), got %d", c.Tree.MinLeaf, c.Tree.MinSplit)
	}

	if c.Tree.MaxDepth < 0 {
		return fmt.Errorf("TREE_MAX_DEPTH must not be negative, got %d", c.Tree.MaxDepth)
	}

	if c.Tree.MinGain < 0 || c.Tree.MinGain >= 1 {
		return fmt.Errorf("TREE_MIN_GAIN must be in [0, 1), got %g", c.Tree.MinGain)
	}

	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}

	return nil
}
