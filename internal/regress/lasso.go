// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jandre17/ltvpipe/internal/dataset"
)

// LassoConfig contains configuration for the L1-penalized fitter.
type LassoConfig struct {
	// NumLambdas is the number of penalties on the descending
	// geometric grid.
	NumLambdas int

	// LambdaMinRatio is the ratio of the smallest grid penalty to the
	// largest (the penalty that zeroes every coefficient).
	LambdaMinRatio float64

	// MaxIterations bounds coordinate-descent sweeps per penalty.
	MaxIterations int

	// Tolerance is the convergence threshold on the largest
	// coefficient change within a sweep.
	Tolerance float64
}

// DefaultLassoConfig returns the default lasso configuration.
func DefaultLassoConfig() LassoConfig {
	return LassoConfig{
		NumLambdas:     100,
		LambdaMinRatio: 1e-4,
		MaxIterations:  1000,
		Tolerance:      1e-7,
	}
}

// LassoFit is one coefficient vector produced at a chosen penalty.
// Components are exactly zero when the penalty has dropped the
// predictor, not merely small.
type LassoFit struct {
	Lambda       float64   `json:"lambda"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// LassoResult is the full penalty-path fit with its cross-validation
// curve and the two selected penalties: the CV-MSE minimizer and the
// largest penalty within one standard error of it (the parsimony
// choice).
type LassoResult struct {
	// Columns are the predictor columns, aligned with every
	// coefficient vector.
	Columns []string `json:"columns"`

	// Lambdas is the descending penalty grid.
	Lambdas []float64 `json:"lambdas"`

	// CVMean and CVStdErr are the cross-validated MSE and its
	// standard error per grid penalty.
	CVMean   []float64 `json:"cv_mean"`
	CVStdErr []float64 `json:"cv_std_err"`

	// Min is the fit at the CV-MSE-minimizing penalty.
	Min LassoFit `json:"min"`

	// OneSE is the fit at the largest penalty whose CV MSE is within
	// one standard error of the minimum.
	OneSE LassoFit `json:"one_se"`

	// Warnings records degenerate features. Their coefficients are
	// pinned to zero for the whole path.
	Warnings []string `json:"warnings,omitempty"`
}

// standardized holds a feature matrix in standardized form along with
// the statistics needed to map coefficients back to the raw scale.
type standardized struct {
	x      [][]float64 // column-major, zero mean, unit scale
	means  []float64
	scales []float64
	active []bool // false for degenerate columns
	yMean  float64
	yc     []float64 // centered target
}

// FitLasso fits the lasso over a descending geometric penalty grid,
// selecting penalties by k-fold cross-validated MSE using the folds
// supplied by the caller (shared with the tree pruner).
func FitLasso(frame *dataset.Frame, folds [][]int, cfg LassoConfig) (*LassoResult, error) {
	if cfg.NumLambdas < 2 {
		return nil, fmt.Errorf("lasso: need at least 2 grid penalties, got %d", cfg.NumLambdas)
	}
	if len(folds) < 2 {
		return nil, fmt.Errorf("lasso: need at least 2 folds, got %d", len(folds))
	}

	n := frame.NumRows()
	p := frame.NumCols()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", ErrUnderdetermined, n)
	}

	res := &LassoResult{Columns: append([]string(nil), frame.Columns...)}

	std := standardize(frame)
	for j, active := range std.active {
		if !active {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("feature %s has near-zero variance; coefficient pinned to zero", frame.Columns[j]))
		}
	}

	res.Lambdas = lambdaGrid(std, cfg)

	// Cross-validate the grid: each fold refits the path on its own
	// standardization and scores the held-out rows.
	foldMSE := make([][]float64, len(folds))
	for f, fold := range folds {
		trainIdx := dataset.Complement(fold, n)
		trainFrame := frame.Subset(trainIdx)
		valFrame := frame.Subset(fold)

		foldStd := standardize(trainFrame)
		path := descendPath(foldStd, res.Lambdas, cfg)

		foldMSE[f] = make([]float64, len(res.Lambdas))
		for li, fit := range path {
			raw := unstandardize(foldStd, fit)
			var sse float64
			for i := 0; i < valFrame.NumRows(); i++ {
				pred := raw.Intercept
				for j := 0; j < p; j++ {
					pred += raw.Coefficients[j] * valFrame.X.At(i, j)
				}
				r := valFrame.Y[i] - pred
				sse += r * r
			}
			foldMSE[f][li] = sse / float64(valFrame.NumRows())
		}
	}

	res.CVMean = make([]float64, len(res.Lambdas))
	res.CVStdErr = make([]float64, len(res.Lambdas))
	perFold := make([]float64, len(folds))
	for li := range res.Lambdas {
		for f := range folds {
			perFold[f] = foldMSE[f][li]
		}
		mean, sd := stat.MeanStdDev(perFold, nil)
		res.CVMean[li] = mean
		res.CVStdErr[li] = sd / math.Sqrt(float64(len(folds)))
	}

	minIdx := 0
	for li, m := range res.CVMean {
		if m < res.CVMean[minIdx] {
			minIdx = li
		}
	}

	// The grid descends, so the first penalty within one standard
	// error of the minimum is the largest such penalty.
	oneSEIdx := minIdx
	threshold := res.CVMean[minIdx] + res.CVStdErr[minIdx]
	for li := 0; li <= minIdx; li++ {
		if res.CVMean[li] <= threshold {
			oneSEIdx = li
			break
		}
	}

	// Final coefficients come from the full training rows.
	path := descendPath(std, res.Lambdas, cfg)
	res.Min = unstandardize(std, path[minIdx])
	res.Min.Lambda = res.Lambdas[minIdx]
	res.OneSE = unstandardize(std, path[oneSEIdx])
	res.OneSE.Lambda = res.Lambdas[oneSEIdx]

	return res, nil
}

// PredictMin returns the prediction at the CV-minimizing penalty.
func (r *LassoResult) PredictMin(row []float64) (float64, error) {
	return r.predict(r.Min, row)
}

// PredictOneSE returns the prediction at the one-standard-error
// penalty.
func (r *LassoResult) PredictOneSE(row []float64) (float64, error) {
	return r.predict(r.OneSE, row)
}

func (r *LassoResult) predict(fit LassoFit, row []float64) (float64, error) {
	if len(row) != len(r.Columns) {
		return 0, fmt.Errorf("predict: row has %d features, model expects %d", len(row), len(r.Columns))
	}
	pred := fit.Intercept
	for j, x := range row {
		pred += fit.Coefficients[j] * x
	}
	return pred, nil
}

// standardize centers and scales each feature column and centers the
// target. Columns with near-zero variance are marked inactive.
func standardize(frame *dataset.Frame) *standardized {
	n := frame.NumRows()
	p := frame.NumCols()

	std := &standardized{
		x:      make([][]float64, p),
		means:  make([]float64, p),
		scales: make([]float64, p),
		active: make([]bool, p),
		yc:     make([]float64, n),
	}

	std.yMean = stat.Mean(frame.Y, nil)
	for i := 0; i < n; i++ {
		std.yc[i] = frame.Y[i] - std.yMean
	}

	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = frame.X.At(i, j)
		}
		mean := stat.Mean(col, nil)

		var ss float64
		for i := 0; i < n; i++ {
			d := col[i] - mean
			ss += d * d
		}
		scale := math.Sqrt(ss / float64(n))

		std.means[j] = mean
		std.x[j] = make([]float64, n)

		if scale*scale < varianceFloor {
			std.scales[j] = 1
			continue // inactive; column stays zero
		}

		std.scales[j] = scale
		std.active[j] = true
		for i := 0; i < n; i++ {
			std.x[j][i] = (col[i] - mean) / scale
		}
	}

	return std
}

// lambdaGrid builds the descending geometric grid. The largest penalty
// is the smallest one that zeroes every coefficient.
func lambdaGrid(std *standardized, cfg LassoConfig) []float64 {
	n := float64(len(std.yc))

	var lambdaMax float64
	for j := range std.x {
		if !std.active[j] {
			continue
		}
		var dot float64
		for i := range std.yc {
			dot += std.x[j][i] * std.yc[i]
		}
		if abs := math.Abs(dot) / n; abs > lambdaMax {
			lambdaMax = abs
		}
	}
	if lambdaMax == 0 {
		lambdaMax = 1 // constant target; any grid works, all fits are zero
	}

	grid := make([]float64, cfg.NumLambdas)
	ratio := math.Pow(cfg.LambdaMinRatio, 1/float64(cfg.NumLambdas-1))
	grid[0] = lambdaMax
	for i := 1; i < cfg.NumLambdas; i++ {
		grid[i] = grid[i-1] * ratio
	}
	return grid
}

// descendPath runs coordinate descent down the penalty grid with warm
// starts, returning one standardized-scale fit per penalty.
func descendPath(std *standardized, lambdas []float64, cfg LassoConfig) []LassoFit {
	p := len(std.x)
	n := len(std.yc)

	beta := make([]float64, p)
	residual := append([]float64(nil), std.yc...)
	fits := make([]LassoFit, len(lambdas))

	for li, lambda := range lambdas {
		for iter := 0; iter < cfg.MaxIterations; iter++ {
			var maxDelta float64
			for j := 0; j < p; j++ {
				if !std.active[j] {
					continue
				}

				// Partial residual correlation with column j; the
				// standardized column has unit mean square, so the
				// update is a plain soft threshold.
				var rho float64
				for i := 0; i < n; i++ {
					rho += std.x[j][i] * residual[i]
				}
				rho = rho/float64(n) + beta[j]

				next := softThreshold(rho, lambda)
				if delta := next - beta[j]; delta != 0 {
					for i := 0; i < n; i++ {
						residual[i] -= delta * std.x[j][i]
					}
					if ad := math.Abs(delta); ad > maxDelta {
						maxDelta = ad
					}
					beta[j] = next
				}
			}
			if maxDelta < cfg.Tolerance {
				break
			}
		}

		fits[li] = LassoFit{
			Lambda:       lambda,
			Coefficients: append([]float64(nil), beta...),
		}
	}

	return fits
}

// softThreshold is the lasso coordinate update S(z, l).
func softThreshold(z, lambda float64) float64 {
	switch {
	case z > lambda:
		return z - lambda
	case z < -lambda:
		return z + lambda
	default:
		return 0
	}
}

// unstandardize maps a standardized-scale fit back to raw feature
// units. Exact zeros stay exactly zero.
func unstandardize(std *standardized, fit LassoFit) LassoFit {
	raw := LassoFit{
		Lambda:       fit.Lambda,
		Coefficients: make([]float64, len(fit.Coefficients)),
	}

	raw.Intercept = std.yMean
	for j, b := range fit.Coefficients {
		if b == 0 {
			continue
		}
		raw.Coefficients[j] = b / std.scales[j]
		raw.Intercept -= raw.Coefficients[j] * std.means[j]
	}
	return raw
}
