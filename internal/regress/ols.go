// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jandre17/ltvpipe/internal/dataset"
)

// ErrUnderdetermined marks a fit with fewer observations than
// parameters.
var ErrUnderdetermined = errors.New("fewer observations than parameters")

// varianceFloor is the threshold below which a feature's
// training-sample variance marks it degenerate.
const varianceFloor = 1e-12

// Coefficient is one fitted regression coefficient with its inference
// statistics. A coefficient is read as the expected change in the
// target per unit change in the predictor, holding the others fixed.
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	TStat    float64 `json:"t_stat"`
	PValue   float64 `json:"p_value"`
}

// OLSResult is a fitted ordinary-least-squares model.
type OLSResult struct {
	// Columns are the predictor columns, in fit order.
	Columns []string `json:"columns"`

	// Intercept is the fitted intercept term.
	Intercept Coefficient `json:"intercept"`

	// Coefficients holds one entry per predictor, aligned with
	// Columns.
	Coefficients []Coefficient `json:"coefficients"`

	// RSS is the residual sum of squares on the training rows.
	RSS float64 `json:"rss"`

	// Warnings records degenerate-feature and conditioning issues
	// encountered during the fit. The fit itself proceeded.
	Warnings []string `json:"warnings,omitempty"`

	beta []float64 // intercept followed by slope coefficients
}

// FitOLS fits y ~ columns + intercept on the given frame by QR
// least squares and derives standard errors, t-statistics, and
// two-sided p-values from the unscaled coefficient covariance.
func FitOLS(frame *dataset.Frame) (*OLSResult, error) {
	n := frame.NumRows()
	p := frame.NumCols()

	if n <= p+1 {
		return nil, fmt.Errorf("%w: %d rows for %d coefficients", ErrUnderdetermined, n, p+1)
	}

	res := &OLSResult{Columns: append([]string(nil), frame.Columns...)}
	res.Warnings = append(res.Warnings, degenerateColumns(frame)...)

	design := withIntercept(frame.X)
	y := mat.NewVecDense(n, append([]float64(nil), frame.Y...))

	var qr mat.QR
	qr.Factorize(design)

	// A Condition error still carries a usable minimum-norm solution;
	// the conditioning warning surfaces alongside the NaN inference
	// statistics below.
	var betaVec mat.VecDense
	if err := qr.SolveVecTo(&betaVec, false, y); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("least squares solve: %w", err)
		}
	}
	res.beta = append([]float64(nil), betaVec.RawVector().Data...)

	// Residual sum of squares
	var fitted mat.VecDense
	fitted.MulVec(design, &betaVec)
	for i := 0; i < n; i++ {
		r := frame.Y[i] - fitted.AtVec(i)
		res.RSS += r * r
	}

	dof := n - p - 1
	sigma2 := res.RSS / float64(dof)

	// Unscaled covariance (X'X)^-1; a failed inverse marks the design
	// near-singular and leaves inference statistics unavailable.
	var xtx, cov mat.Dense
	xtx.Mul(design.T(), design)
	seAvailable := true
	if err := cov.Inverse(&xtx); err != nil {
		seAvailable = false
		res.Warnings = append(res.Warnings, "design matrix is near-singular; standard errors unavailable")
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	coefAt := func(idx int, name string) Coefficient {
		c := Coefficient{Name: name, Estimate: res.beta[idx]}
		if !seAvailable {
			c.StdErr = math.NaN()
			c.TStat = math.NaN()
			c.PValue = math.NaN()
			return c
		}
		c.StdErr = math.Sqrt(sigma2 * cov.At(idx, idx))
		if c.StdErr > 0 {
			c.TStat = c.Estimate / c.StdErr
			c.PValue = 2 * tDist.CDF(-math.Abs(c.TStat))
		} else {
			c.TStat = math.NaN()
			c.PValue = math.NaN()
		}
		return c
	}

	res.Intercept = coefAt(0, "(intercept)")
	for j, name := range res.Columns {
		res.Coefficients = append(res.Coefficients, coefAt(j+1, name))
	}

	return res, nil
}

// Predict returns the fitted value for one feature row, ordered as
// the fit's Columns.
func (r *OLSResult) Predict(row []float64) (float64, error) {
	if len(row) != len(r.Columns) {
		return 0, fmt.Errorf("predict: row has %d features, model expects %d", len(row), len(r.Columns))
	}

	pred := r.beta[0]
	for j, x := range row {
		pred += r.beta[j+1] * x
	}
	return pred, nil
}

// LeastSquaresRSS returns the residual sum of squares of an
// intercept-augmented least-squares fit, without inference statistics.
// Used by the subset search, which only ranks subsets by RSS.
func LeastSquaresRSS(frame *dataset.Frame) (float64, error) {
	n := frame.NumRows()
	p := frame.NumCols()
	if n < p+1 {
		return 0, fmt.Errorf("%w: %d rows for %d coefficients", ErrUnderdetermined, n, p+1)
	}

	design := withIntercept(frame.X)
	y := mat.NewVecDense(n, append([]float64(nil), frame.Y...))

	var qr mat.QR
	qr.Factorize(design)

	var betaVec mat.VecDense
	if err := qr.SolveVecTo(&betaVec, false, y); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return 0, fmt.Errorf("least squares solve: %w", err)
		}
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &betaVec)

	var rss float64
	for i := 0; i < n; i++ {
		r := frame.Y[i] - fitted.AtVec(i)
		rss += r * r
	}
	return rss, nil
}

// withIntercept prepends a column of ones to X.
func withIntercept(x *mat.Dense) *mat.Dense {
	n, p := x.Dims()
	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, x.At(i, j))
		}
	}
	return design
}

// degenerateColumns lists feature columns with near-zero variance.
func degenerateColumns(frame *dataset.Frame) []string {
	var warnings []string
	for _, name := range frame.Columns {
		col, err := frame.Column(name)
		if err != nil {
			continue
		}
		if stat.Variance(col, nil) < varianceFloor {
			warnings = append(warnings, fmt.Sprintf("feature %s has near-zero variance", name))
		}
	}
	return warnings
}
