// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package subset

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/jandre17/ltvpipe/internal/dataset"
	"github.com/jandre17/ltvpipe/internal/regress"
)

// ErrTooManyFeatures is returned when the feature count exceeds the
// configured cap. The search is a full enumeration of O(2^p) subsets
// and is not meant to scale past small feature sets.
var ErrTooManyFeatures = errors.New("feature count exceeds exhaustive search cap")

// Candidate is the best subset found at one size.
type Candidate struct {
	Columns []string `json:"columns"`
	RSS     float64  `json:"rss"`
	BIC     float64  `json:"bic"`
}

// Result is the outcome of an exhaustive best-subset search.
type Result struct {
	// Columns is the chosen subset, in design-matrix column order.
	Columns []string `json:"columns"`

	// RSS and BIC are the chosen subset's scores.
	RSS float64 `json:"rss"`
	BIC float64 `json:"bic"`

	// BySize holds the minimum-RSS candidate at each subset size,
	// ascending, for the report.
	BySize []Candidate `json:"by_size"`

	// Evaluated is the number of subsets scored.
	Evaluated int `json:"evaluated"`
}

// Select enumerates every non-empty feature subset, keeps the
// minimum-RSS subset per size, and picks across sizes by BIC
// (n*ln(RSS/n) + k*ln(n), k the subset size). Sizes are scanned
// ascending and a larger subset must strictly improve BIC to win, so
// equal-criterion ties go to the smaller subset.
func Select(frame *dataset.Frame, maxFeatures int) (*Result, error) {
	n := frame.NumRows()
	p := frame.NumCols()

	if p == 0 {
		return nil, errors.New("subset: no feature columns")
	}
	if p > maxFeatures {
		return nil, fmt.Errorf("%w: %d features, cap %d", ErrTooManyFeatures, p, maxFeatures)
	}
	if n <= p {
		return nil, fmt.Errorf("%w: %d rows for %d features", regress.ErrUnderdetermined, n, p)
	}

	res := &Result{}

	bestRSS := make([]float64, p+1) // indexed by size
	bestMask := make([]uint64, p+1)
	for size := 1; size <= p; size++ {
		bestRSS[size] = math.Inf(1)
	}

	// Masks ascend, so an RSS tie within a size keeps the first
	// (lexicographically earliest) subset. Deterministic by
	// construction.
	for mask := uint64(1); mask < uint64(1)<<p; mask++ {
		size := bits.OnesCount64(mask)

		cols := maskColumns(frame.Columns, mask)
		sub, err := frame.Select(cols)
		if err != nil {
			return nil, err
		}
		rss, err := regress.LeastSquaresRSS(sub)
		if err != nil {
			return nil, fmt.Errorf("subset %v: %w", cols, err)
		}
		res.Evaluated++

		if rss < bestRSS[size] {
			bestRSS[size] = rss
			bestMask[size] = mask
		}
	}

	bestBIC := math.Inf(1)
	bestSize := 0
	for size := 1; size <= p; size++ {
		score := bic(n, size, bestRSS[size])
		res.BySize = append(res.BySize, Candidate{
			Columns: maskColumns(frame.Columns, bestMask[size]),
			RSS:     bestRSS[size],
			BIC:     score,
		})
		if score < bestBIC {
			bestBIC = score
			bestSize = size
		}
	}

	chosen := res.BySize[bestSize-1]
	res.Columns = chosen.Columns
	res.RSS = chosen.RSS
	res.BIC = chosen.BIC
	return res, nil
}

// rssFloor treats numerically-zero residuals as an exact perfect fit,
// so two perfect subsets of different sizes tie on the criterion
// instead of being ranked by rounding noise.
const rssFloor = 1e-12

// bic computes n*ln(RSS/n) + k*ln(n). A perfect fit drives the
// criterion to -Inf, which compares correctly against other sizes.
func bic(n, k int, rss float64) float64 {
	nf := float64(n)
	if rss <= rssFloor*nf {
		return math.Inf(-1)
	}
	return nf*math.Log(rss/nf) + float64(k)*math.Log(nf)
}

// maskColumns returns the column names selected by the bitmask, in
// frame column order.
func maskColumns(columns []string, mask uint64) []string {
	cols := make([]string, 0, bits.OnesCount64(mask))
	for j, name := range columns {
		if mask&(1<<uint(j)) != 0 {
			cols = append(cols, name)
		}
	}
	return cols
}
