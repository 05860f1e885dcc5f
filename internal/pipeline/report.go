// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package pipeline

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jandre17/ltvpipe/internal/eval"
	"github.com/jandre17/ltvpipe/internal/models"
	"github.com/jandre17/ltvpipe/internal/regress"
	"github.com/jandre17/ltvpipe/internal/subset"
	"github.com/jandre17/ltvpipe/internal/tree"
)

// ModelStatus classifies one model family's outcome. A failed fit and
// a fitted model with poor test error are different things; the report
// never conflates them.
type ModelStatus string

const (
	// StatusFitted means the model fit cleanly.
	StatusFitted ModelStatus = "fitted"

	// StatusFittedWithWarnings means the model fit but flagged
	// degenerate features or conditioning problems.
	StatusFittedWithWarnings ModelStatus = "fitted_with_warnings"

	// StatusFailed means the model could not be fit at all.
	StatusFailed ModelStatus = "failed"
)

// OLSReport covers the subset-selected ordinary-least-squares model.
type OLSReport struct {
	Status ModelStatus `json:"status"`
	Error  string      `json:"error,omitempty"`

	// Selection is the exhaustive-search outcome, including the
	// per-size candidates.
	Selection *subset.Result `json:"selection,omitempty"`

	// Fit holds the coefficient table over the selected columns.
	Fit *regress.OLSResult `json:"fit,omitempty"`

	Metrics *eval.Metrics `json:"metrics,omitempty"`
}

// LassoReport covers the L1-penalized model. Both selected penalties
// are evaluated; neither is declared the winner.
type LassoReport struct {
	Status ModelStatus `json:"status"`
	Error  string      `json:"error,omitempty"`

	Fit *regress.LassoResult `json:"fit,omitempty"`

	// MetricsMin scores the CV-MSE-minimizing penalty; MetricsOneSE
	// scores the parsimony penalty.
	MetricsMin   *eval.Metrics `json:"metrics_min,omitempty"`
	MetricsOneSE *eval.Metrics `json:"metrics_one_se,omitempty"`
}

// TreeReport covers the pruned regression tree.
type TreeReport struct {
	Status ModelStatus `json:"status"`
	Error  string      `json:"error,omitempty"`

	// Tree is the pruned structure: split columns and thresholds on
	// internal nodes, counts, predictions, and deviances throughout.
	Tree *tree.Tree `json:"tree,omitempty"`

	// Prune holds the chosen complexity penalty and the CV curve.
	Prune *tree.PruneResult `json:"prune,omitempty"`

	Metrics *eval.Metrics `json:"metrics,omitempty"`
}

// Report is the full output of one pipeline run. The aggregate table
// is first-class output, reusable by downstream analyses independent
// of the models.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	// Seed reproduces the split and CV folds of this run.
	Seed int64 `json:"seed"`

	Customers int `json:"customers"`
	Churned   int `json:"churned"`
	TrainRows int `json:"train_rows"`
	TestRows  int `json:"test_rows"`

	// Features are the expanded design-matrix columns.
	Features []string `json:"features"`

	Aggregates []models.CustomerAggregate `json:"aggregates"`

	OLS   OLSReport   `json:"ols"`
	Lasso LassoReport `json:"lasso"`
	Tree  TreeReport  `json:"tree"`
}

// Write serializes the report as JSON.
func (r *Report) Write(w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
