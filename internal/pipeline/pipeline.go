// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jandre17/ltvpipe/internal/aggregate"
	"github.com/jandre17/ltvpipe/internal/config"
	"github.com/jandre17/ltvpipe/internal/dataset"
	"github.com/jandre17/ltvpipe/internal/eval"
	"github.com/jandre17/ltvpipe/internal/logging"
	"github.com/jandre17/ltvpipe/internal/models"
	"github.com/jandre17/ltvpipe/internal/regress"
	"github.com/jandre17/ltvpipe/internal/subset"
	"github.com/jandre17/ltvpipe/internal/tree"
)

// unboundedDepth stands in for a zero MaxDepth setting.
const unboundedDepth = 1 << 20

// Run executes the full modeling pipeline over an in-memory event
// table: aggregate, split, fit the three model families, and score
// each on the shared held-out rows.
//
// Input-shape problems abort the run, including an underdetermined
// subset search: too few training rows for the expanded feature set is
// a shape defect, not a property of one model family. A model family
// that cannot be fit on well-shaped data is recorded as failed in the
// report and the remaining families still run.
func Run(ctx context.Context, events []models.SubscriptionEvent, cfg *config.Config) (*Report, error) {
	started := time.Now()

	if len(events) == 0 {
		return nil, errors.New("pipeline: no events to process")
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Seed:      cfg.Pipeline.Seed,
	}
	log := logging.With().Str("run_id", report.RunID).Logger()

	aggregates := aggregate.New(aggregate.Config{UnitPrice: cfg.Pipeline.UnitPrice}).Aggregate(events)
	modeling := aggregate.ModelingSubset(aggregates)

	report.Customers = len(aggregates)
	report.Churned = len(modeling)
	report.Aggregates = aggregates
	log.Info().
		Int("events", len(events)).
		Int("customers", len(aggregates)).
		Int("churned", len(modeling)).
		Msg("aggregation complete")

	train, test, err := dataset.Split(len(modeling), cfg.Pipeline.TestFraction, cfg.Pipeline.Seed)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	trainRows := pick(modeling, train)
	testRows := pick(modeling, test)
	report.TrainRows = len(trainRows)
	report.TestRows = len(testRows)

	enc := dataset.NewEncoder(trainRows)
	frame, err := enc.BuildFrame(trainRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	report.Features = frame.Columns

	// One fold partition serves both the lasso and the tree pruner, so
	// their CV estimates are computed on identical folds.
	folds, err := dataset.KFold(frame.NumRows(), cfg.Pipeline.CVFolds, cfg.Pipeline.Seed)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	report.OLS, err = runOLS(frame, enc, testRows, cfg.Subset.MaxFeatures)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Lasso = runLasso(frame, enc, testRows, folds, cfg.Lasso)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Tree = runTree(frame, enc, testRows, folds, cfg.Tree)

	report.FinishedAt = time.Now()
	report.DurationMS = report.FinishedAt.Sub(started).Milliseconds()
	log.Info().
		Str("ols", string(report.OLS.Status)).
		Str("lasso", string(report.Lasso.Status)).
		Str("tree", string(report.Tree.Status)).
		Int64("duration_ms", report.DurationMS).
		Msg("pipeline complete")
	return report, nil
}

func runOLS(frame *dataset.Frame, enc *dataset.Encoder, testRows []models.CustomerAggregate, maxFeatures int) (OLSReport, error) {
	rep := OLSReport{Status: StatusFitted}

	sel, err := subset.Select(frame, maxFeatures)
	if err != nil {
		logging.Err(err).Msg("subset search failed")
		// An underdetermined search means the training frame itself is
		// too thin for the expanded features. Nothing downstream can
		// produce a meaningful comparison, so the whole run aborts.
		if errors.Is(err, regress.ErrUnderdetermined) {
			return rep, fmt.Errorf("pipeline: feature selection: %w", err)
		}
		return OLSReport{Status: StatusFailed, Error: err.Error()}, nil
	}
	rep.Selection = sel

	sub, err := frame.Select(sel.Columns)
	if err != nil {
		return OLSReport{Status: StatusFailed, Error: err.Error(), Selection: sel}, nil
	}
	fit, err := regress.FitOLS(sub)
	if err != nil {
		logging.Err(err).Msg("ols fit failed")
		return OLSReport{Status: StatusFailed, Error: err.Error(), Selection: sel}, nil
	}
	rep.Fit = fit
	if len(fit.Warnings) > 0 {
		rep.Status = StatusFittedWithWarnings
	}

	pred, err := eval.Projected(fit, frame.Columns, sel.Columns)
	if err != nil {
		rep.Error = err.Error()
		return rep, nil
	}
	rep.Metrics, err = scoreModel(pred, enc, testRows)
	if err != nil {
		rep.Error = err.Error()
	}

	logging.Info().
		Strs("columns", sel.Columns).
		Str("status", string(rep.Status)).
		Msg("ols model fitted")
	return rep, nil
}

func runLasso(frame *dataset.Frame, enc *dataset.Encoder, testRows []models.CustomerAggregate, folds [][]int, lc config.LassoConfig) LassoReport {
	rep := LassoReport{Status: StatusFitted}

	fit, err := regress.FitLasso(frame, folds, regress.LassoConfig{
		NumLambdas:     lc.NumLambdas,
		LambdaMinRatio: lc.LambdaMinRatio,
		MaxIterations:  lc.MaxIterations,
		Tolerance:      lc.Tolerance,
	})
	if err != nil {
		logging.Err(err).Msg("lasso fit failed")
		return LassoReport{Status: StatusFailed, Error: err.Error()}
	}
	rep.Fit = fit
	if len(fit.Warnings) > 0 {
		rep.Status = StatusFittedWithWarnings
	}

	rep.MetricsMin, err = scoreModel(eval.PredictorFunc(fit.PredictMin), enc, testRows)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.MetricsOneSE, err = scoreModel(eval.PredictorFunc(fit.PredictOneSE), enc, testRows)
	if err != nil {
		rep.Error = err.Error()
	}

	logging.Info().
		Float64("lambda_min", fit.Min.Lambda).
		Float64("lambda_one_se", fit.OneSE.Lambda).
		Str("status", string(rep.Status)).
		Msg("lasso model fitted")
	return rep
}

func runTree(frame *dataset.Frame, enc *dataset.Encoder, testRows []models.CustomerAggregate, folds [][]int, tc config.TreeConfig) TreeReport {
	rep := TreeReport{Status: StatusFitted}

	depth := tc.MaxDepth
	if depth <= 0 {
		depth = unboundedDepth
	}
	grown, err := tree.Fit(frame, tree.Config{
		MinSplit: tc.MinSplit,
		MinLeaf:  tc.MinLeaf,
		MaxDepth: depth,
		MinGain:  tc.MinGain,
	})
	if err != nil {
		logging.Err(err).Msg("tree fit failed")
		return TreeReport{Status: StatusFailed, Error: err.Error()}
	}

	if len(grown.Warnings) > 0 {
		rep.Status = StatusFittedWithWarnings
	}

	pruned, pr, err := grown.Prune(frame, folds)
	if err != nil {
		logging.Err(err).Msg("tree pruning failed")
		return TreeReport{Status: StatusFailed, Error: err.Error()}
	}
	rep.Tree = pruned
	rep.Prune = pr

	rep.Metrics, err = scoreModel(pruned, enc, testRows)
	if err != nil {
		rep.Error = err.Error()
	}

	logging.Info().
		Int("leaves", pr.Leaves).
		Float64("alpha", pr.Alpha).
		Str("status", string(rep.Status)).
		Msg("tree model fitted")
	return rep
}

// scoreModel evaluates a fitted model on the held-out rows. An
// evaluation error leaves the fit in the report; only the metrics are
// missing.
func scoreModel(model eval.Predictor, enc *dataset.Encoder, testRows []models.CustomerAggregate) (*eval.Metrics, error) {
	m, err := eval.Evaluate(model, enc, testRows)
	if err != nil {
		logging.Err(err).Msg("evaluation failed")
		return nil, err
	}
	if m.Rejected > 0 {
		logging.Warn().
			Int("rejected", m.Rejected).
			Strs("customers", m.RejectedIDs).
			Msg("test rows outside model support")
	}
	return m, nil
}

func pick(rows []models.CustomerAggregate, idx []int) []models.CustomerAggregate {
	out := make([]models.CustomerAggregate, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}
