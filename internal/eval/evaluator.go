// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package eval

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jandre17/ltvpipe/internal/dataset"
	"github.com/jandre17/ltvpipe/internal/models"
)

// Predictor maps an encoded feature row to a scalar prediction.
type Predictor interface {
	Predict(row []float64) (float64, error)
}

// PredictorFunc adapts a plain function to the Predictor interface.
type PredictorFunc func(row []float64) (float64, error)

// Predict calls f(row).
func (f PredictorFunc) Predict(row []float64) (float64, error) {
	return f(row)
}

// Prediction is one scored test row.
type Prediction struct {
	CustomerID string  `json:"customer_id"`
	Predicted  float64 `json:"predicted"`
	Actual     float64 `json:"actual"`
}

// Metrics is the evaluation of one fitted model on held-out rows.
// Evaluation reports; it never ranks models or picks a winner.
type Metrics struct {
	// MSE is the mean squared error over the evaluated rows.
	MSE float64 `json:"mse"`

	// MAE is the mean absolute error, readable as average units off.
	MAE float64 `json:"mae"`

	// Evaluated counts the rows that were scored.
	Evaluated int `json:"evaluated"`

	// Rejected counts rows whose feature values fall outside the
	// fitted model's support. Those rows are excluded explicitly, not
	// predicted by extrapolation or default.
	Rejected int `json:"rejected"`

	// RejectedIDs names the rejected rows.
	RejectedIDs []string `json:"rejected_ids,omitempty"`

	// Predictions holds the per-row scores over the evaluated rows.
	Predictions []Prediction `json:"predictions"`
}

// Evaluate scores a fitted model on held-out aggregate rows. Rows the
// encoder cannot represent, such as a categorical level never seen in
// training, are counted as rejected and skipped. At least one row must
// survive.
func Evaluate(model Predictor, enc *dataset.Encoder, rows []models.CustomerAggregate) (*Metrics, error) {
	if model == nil {
		return nil, errors.New("eval: nil model")
	}

	m := &Metrics{}
	var sqErr, absErr []float64

	for _, agg := range rows {
		vec, err := enc.Row(agg)
		if err != nil {
			if errors.Is(err, dataset.ErrUnknownLevel) {
				m.Rejected++
				m.RejectedIDs = append(m.RejectedIDs, agg.CustomerID)
				continue
			}
			return nil, fmt.Errorf("encode customer %s: %w", agg.CustomerID, err)
		}

		pred, err := model.Predict(vec)
		if err != nil {
			return nil, fmt.Errorf("predict customer %s: %w", agg.CustomerID, err)
		}

		actual := dataset.Target(agg)
		r := pred - actual
		sqErr = append(sqErr, r*r)
		absErr = append(absErr, math.Abs(r))
		m.Evaluated++
		m.Predictions = append(m.Predictions, Prediction{
			CustomerID: agg.CustomerID,
			Predicted:  pred,
			Actual:     actual,
		})
	}

	if m.Evaluated == 0 {
		return nil, fmt.Errorf("eval: no scorable rows (%d rejected)", m.Rejected)
	}

	m.MSE = stat.Mean(sqErr, nil)
	m.MAE = stat.Mean(absErr, nil)
	return m, nil
}

// Projected restricts a model fitted on a column subset to full
// encoder rows, picking out the columns the model was trained on.
func Projected(model Predictor, all, chosen []string) (Predictor, error) {
	idx := make([]int, 0, len(chosen))
	for _, name := range chosen {
		j := -1
		for k, col := range all {
			if col == name {
				j = k
				break
			}
		}
		if j < 0 {
			return nil, fmt.Errorf("eval: column %q not in encoder columns", name)
		}
		idx = append(idx, j)
	}

	return PredictorFunc(func(row []float64) (float64, error) {
		if len(row) != len(all) {
			return 0, fmt.Errorf("eval: row has %d features, encoder has %d", len(row), len(all))
		}
		sub := make([]float64, len(idx))
		for k, j := range idx {
			sub[k] = row[j]
		}
		return model.Predict(sub)
	}), nil
}
