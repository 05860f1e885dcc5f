// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package eval

import (
	"math"
	"testing"

	"github.com/jandre17/ltvpipe/internal/dataset"
	"github.com/jandre17/ltvpipe/internal/models"
)

func agg(id, gender string, months int) models.CustomerAggregate {
	return models.CustomerAggregate{
		CustomerID:     id,
		Gender:         gender,
		Churned:        true,
		TotalEvents:    months * 2,
		AvgPages:       float64(months) * 1.5,
		AvgDuration:    20,
		Months:         months,
		PropEntered:    0.5,
		PropCompleted:  0.25,
		PropAbandoned:  0.25,
		PropPromo:      0.1,
		EventsPerMonth: 2,
	}
}

func TestEvaluateConstantModelMatchesVariance(t *testing.T) {
	rows := []models.CustomerAggregate{
		agg("c1", "f", 1),
		agg("c2", "m", 3),
		agg("c3", "f", 5),
		agg("c4", "m", 7),
	}
	enc := dataset.NewEncoder(rows)

	var mean float64
	for _, r := range rows {
		mean += dataset.Target(r)
	}
	mean /= float64(len(rows))

	constant := PredictorFunc(func([]float64) (float64, error) { return mean, nil })
	m, err := Evaluate(constant, enc, rows)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// A constant-mean model's MSE is exactly the population variance
	// of the targets.
	var wantMSE, wantMAE float64
	for _, r := range rows {
		d := dataset.Target(r) - mean
		wantMSE += d * d
		wantMAE += math.Abs(d)
	}
	wantMSE /= float64(len(rows))
	wantMAE /= float64(len(rows))

	if math.Abs(m.MSE-wantMSE) > 1e-12 {
		t.Errorf("MSE = %v, want %v", m.MSE, wantMSE)
	}
	if math.Abs(m.MAE-wantMAE) > 1e-12 {
		t.Errorf("MAE = %v, want %v", m.MAE, wantMAE)
	}
	if got, want := m.Evaluated, len(rows); got != want {
		t.Errorf("Evaluated = %d, want %d", got, want)
	}
	if got, want := len(m.Predictions), len(rows); got != want {
		t.Errorf("len(Predictions) = %d, want %d", got, want)
	}
}

func TestEvaluateRejectsUnknownLevel(t *testing.T) {
	train := []models.CustomerAggregate{
		agg("c1", "f", 2),
		agg("c2", "m", 4),
	}
	enc := dataset.NewEncoder(train)

	test := []models.CustomerAggregate{
		agg("c3", "f", 3),
		agg("c4", "nonbinary", 5),
	}

	zero := PredictorFunc(func([]float64) (float64, error) { return 0, nil })
	m, err := Evaluate(zero, enc, test)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if got, want := m.Rejected, 1; got != want {
		t.Errorf("Rejected = %d, want %d", got, want)
	}
	if got, want := m.Evaluated, 1; got != want {
		t.Errorf("Evaluated = %d, want %d", got, want)
	}
	if len(m.RejectedIDs) != 1 || m.RejectedIDs[0] != "c4" {
		t.Errorf("RejectedIDs = %v, want [c4]", m.RejectedIDs)
	}
}

func TestEvaluateNoScorableRows(t *testing.T) {
	train := []models.CustomerAggregate{agg("c1", "f", 2), agg("c2", "f", 3)}
	enc := dataset.NewEncoder(train)

	test := []models.CustomerAggregate{agg("c3", "m", 3)}
	zero := PredictorFunc(func([]float64) (float64, error) { return 0, nil })

	if _, err := Evaluate(zero, enc, test); err == nil {
		t.Error("Evaluate() with every row rejected did not error")
	}
}

func TestEvaluateNilModel(t *testing.T) {
	enc := dataset.NewEncoder(nil)
	if _, err := Evaluate(nil, enc, nil); err == nil {
		t.Error("Evaluate(nil) did not error")
	}
}

func TestProjected(t *testing.T) {
	all := []string{"a", "b", "c"}

	inner := PredictorFunc(func(row []float64) (float64, error) {
		return 10*row[0] + row[1], nil
	})

	proj, err := Projected(inner, all, []string{"c", "a"})
	if err != nil {
		t.Fatalf("Projected() error = %v", err)
	}

	got, err := proj.Predict([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if want := 10*3.0 + 1; got != want {
		t.Errorf("Predict() = %v, want %v", got, want)
	}

	if _, err := proj.Predict([]float64{1, 2}); err == nil {
		t.Error("Predict() with short row did not error")
	}

	if _, err := Projected(inner, all, []string{"missing"}); err == nil {
		t.Error("Projected() with unknown column did not error")
	}
}
