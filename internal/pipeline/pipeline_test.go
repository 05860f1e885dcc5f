// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jandre17/ltvpipe/internal/aggregate"
	"github.com/jandre17/ltvpipe/internal/config"
	"github.com/jandre17/ltvpipe/internal/dataset"
	"github.com/jandre17/ltvpipe/internal/eval"
	"github.com/jandre17/ltvpipe/internal/models"
	"github.com/jandre17/ltvpipe/internal/regress"
)

// syntheticEvents builds 100 customers: half churned with known
// elapsed times, half still active. Customer cust-001 has two events
// on the same day, so its target label is exactly one month.
func syntheticEvents(t *testing.T) []models.SubscriptionEvent {
	t.Helper()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var events []models.SubscriptionEvent

	gender := func(i int) string {
		if i%2 == 0 {
			return "f"
		}
		return "m"
	}

	// cust-001: two same-day events, terminated.
	events = append(events,
		models.SubscriptionEvent{
			CustomerID: "cust-001", Status: models.StatusNew, Gender: "m",
			Date: base, Pages: 3, Duration: 12,
		},
		models.SubscriptionEvent{
			CustomerID: "cust-001", Status: models.StatusTerminated, Gender: "m",
			Date: base, Pages: 5, Duration: 8,
		},
	)

	for i := 2; i <= 50; i++ {
		id := fmt.Sprintf("cust-%03d", i)
		spacing := 3 * (i%10 + 1) // days between events
		for j := 0; j < 10; j++ {
			status := models.StatusActive
			if j == 0 {
				status = models.StatusNew
			}
			if j == 9 {
				status = models.StatusTerminated
			}
			events = append(events, models.SubscriptionEvent{
				CustomerID:        id,
				Status:            status,
				Gender:            gender(i),
				Date:              base.AddDate(0, 0, j*spacing),
				Pages:             float64(5 + i%7 + j%3),
				Duration:          float64(10 + (i%5)*3 + j%4),
				EnteredCheckout:   (i+j)%2 == 0,
				CompletedCheckout: (i+j)%4 == 0,
				UsedPromo:         (i+j)%3 == 0,
			})
		}
	}

	// Active customers: never terminated, excluded from modeling.
	for i := 51; i <= 100; i++ {
		id := fmt.Sprintf("cust-%03d", i)
		for j := 0; j < 10; j++ {
			status := models.StatusActive
			if j == 0 {
				status = models.StatusNew
			}
			events = append(events, models.SubscriptionEvent{
				CustomerID: id,
				Status:     status,
				Gender:     gender(i),
				Date:       base.AddDate(0, 0, j*7),
				Pages:      float64(4 + i%6),
				Duration:   float64(9 + i%8),
			})
		}
	}

	return events
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			UnitPrice:    10,
			TestFraction: 0.2,
			Seed:         42,
			CVFolds:      10,
		},
		Subset: config.SubsetConfig{MaxFeatures: 16},
		Lasso: config.LassoConfig{
			NumLambdas:     100,
			LambdaMinRatio: 1e-4,
			MaxIterations:  1000,
			Tolerance:      1e-7,
		},
		Tree: config.TreeConfig{
			MinSplit: 20,
			MinLeaf:  7,
			MaxDepth: 30,
			MinGain:  0.01,
		},
	}
}

func fittedOK(s ModelStatus) bool {
	return s == StatusFitted || s == StatusFittedWithWarnings
}

func TestRunEndToEnd(t *testing.T) {
	report, err := Run(context.Background(), syntheticEvents(t), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.RunID == "" {
		t.Error("empty run id")
	}
	if got, want := report.Customers, 100; got != want {
		t.Errorf("Customers = %d, want %d", got, want)
	}
	if got, want := report.Churned, 50; got != want {
		t.Errorf("Churned = %d, want %d", got, want)
	}
	if got, want := report.TestRows, 10; got != want {
		t.Errorf("TestRows = %d, want %d", got, want)
	}
	if got, want := report.TrainRows, 40; got != want {
		t.Errorf("TrainRows = %d, want %d", got, want)
	}

	var first *models.CustomerAggregate
	for i := range report.Aggregates {
		if report.Aggregates[i].CustomerID == "cust-001" {
			first = &report.Aggregates[i]
		}
	}
	if first == nil {
		t.Fatal("cust-001 missing from aggregate table")
	}
	if got, want := first.Months, 1; got != want {
		t.Errorf("cust-001 Months = %d, want %d", got, want)
	}
	if got, want := first.LTV, 10.0; got != want {
		t.Errorf("cust-001 LTV = %v, want %v", got, want)
	}
	if got, want := first.TotalEvents, 2; got != want {
		t.Errorf("cust-001 TotalEvents = %d, want %d", got, want)
	}

	if !fittedOK(report.OLS.Status) {
		t.Errorf("OLS status = %q (error %q), want fitted", report.OLS.Status, report.OLS.Error)
	}
	if report.OLS.Metrics == nil || report.OLS.Fit == nil || report.OLS.Selection == nil {
		t.Error("OLS report missing fit, selection, or metrics")
	}
	if !fittedOK(report.Lasso.Status) {
		t.Errorf("lasso status = %q (error %q), want fitted", report.Lasso.Status, report.Lasso.Error)
	}
	if report.Lasso.MetricsMin == nil || report.Lasso.MetricsOneSE == nil {
		t.Error("lasso report missing metrics for one of the two penalties")
	}
	if !fittedOK(report.Tree.Status) {
		t.Errorf("tree status = %q (error %q), want fitted", report.Tree.Status, report.Tree.Error)
	}
	if report.Tree.Metrics == nil || report.Tree.Tree == nil || report.Tree.Prune == nil {
		t.Error("tree report missing tree, prune result, or metrics")
	}

	if report.Lasso.Fit.OneSE.Lambda < report.Lasso.Fit.Min.Lambda {
		t.Errorf("one-se lambda %v below min lambda %v",
			report.Lasso.Fit.OneSE.Lambda, report.Lasso.Fit.Min.Lambda)
	}
}

func TestRunConstantModelClosedForm(t *testing.T) {
	// A constant model predicting the test-target mean must score an
	// MSE equal to the population variance of the test targets.
	cfg := testConfig()
	events := syntheticEvents(t)

	aggregates := aggregate.New(aggregate.Config{UnitPrice: cfg.Pipeline.UnitPrice}).Aggregate(events)
	modeling := aggregate.ModelingSubset(aggregates)
	train, test, err := dataset.Split(len(modeling), cfg.Pipeline.TestFraction, cfg.Pipeline.Seed)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	trainRows := pick(modeling, train)
	testRows := pick(modeling, test)
	enc := dataset.NewEncoder(trainRows)

	var mean float64
	for _, r := range testRows {
		mean += dataset.Target(r)
	}
	mean /= float64(len(testRows))

	constant := eval.PredictorFunc(func([]float64) (float64, error) { return mean, nil })
	m, err := eval.Evaluate(constant, enc, testRows)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	var variance float64
	for _, r := range testRows {
		d := dataset.Target(r) - mean
		variance += d * d
	}
	variance /= float64(len(testRows))

	if math.Abs(m.MSE-variance) > 1e-9 {
		t.Errorf("constant-model MSE = %v, want test variance %v", m.MSE, variance)
	}
}

func TestRunDeterministicGivenSeed(t *testing.T) {
	events := syntheticEvents(t)

	first, err := Run(context.Background(), events, testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := Run(context.Background(), events, testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if first.OLS.Selection != nil && second.OLS.Selection != nil {
		if !reflect.DeepEqual(first.OLS.Selection.Columns, second.OLS.Selection.Columns) {
			t.Errorf("selected columns differ across runs: %v vs %v",
				first.OLS.Selection.Columns, second.OLS.Selection.Columns)
		}
	}
	if first.Lasso.Fit != nil && second.Lasso.Fit != nil {
		if first.Lasso.Fit.Min.Lambda != second.Lasso.Fit.Min.Lambda {
			t.Errorf("min lambda differs across runs: %v vs %v",
				first.Lasso.Fit.Min.Lambda, second.Lasso.Fit.Min.Lambda)
		}
		if !reflect.DeepEqual(first.Lasso.Fit.Min.Coefficients, second.Lasso.Fit.Min.Coefficients) {
			t.Error("lasso coefficients differ across runs")
		}
	}
	if first.Tree.Prune != nil && second.Tree.Prune != nil {
		if first.Tree.Prune.Leaves != second.Tree.Prune.Leaves {
			t.Errorf("pruned leaf count differs across runs: %d vs %d",
				first.Tree.Prune.Leaves, second.Tree.Prune.Leaves)
		}
	}
}

func TestRunAbortsWhenTrainingRowsCannotSupportFeatures(t *testing.T) {
	// Ten churned customers with both genders expand to eight feature
	// columns but leave only eight training rows after the split. The
	// subset search cannot be determined on that shape, so the run must
	// abort instead of reporting a partial comparison.
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var events []models.SubscriptionEvent
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("cust-%03d", i)
		g := "f"
		if i%2 == 0 {
			g = "m"
		}
		events = append(events,
			models.SubscriptionEvent{
				CustomerID: id, Status: models.StatusNew, Gender: g,
				Date: base, Pages: float64(3 + i), Duration: float64(10 + i),
			},
			models.SubscriptionEvent{
				CustomerID: id, Status: models.StatusTerminated, Gender: g,
				Date: base.AddDate(0, 0, 5*i), Pages: float64(2 + i%3), Duration: float64(8 + i%4),
			},
		)
	}

	cfg := testConfig()
	cfg.Pipeline.CVFolds = 4

	report, err := Run(context.Background(), events, cfg)
	if err == nil {
		t.Fatalf("Run() succeeded on an undersized cohort: ols=%q lasso=%q tree=%q",
			report.OLS.Status, report.Lasso.Status, report.Tree.Status)
	}
	if !errors.Is(err, regress.ErrUnderdetermined) {
		t.Errorf("Run() error = %v, want ErrUnderdetermined", err)
	}
}

func TestRunNoEvents(t *testing.T) {
	if _, err := Run(context.Background(), nil, testConfig()); err == nil {
		t.Error("Run() with no events did not error")
	}
}

func TestReportWrite(t *testing.T) {
	report, err := Run(context.Background(), syntheticEvents(t), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	for _, key := range []string{"run_id", "aggregates", "ols", "lasso", "tree"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report missing %q", key)
		}
	}
}
