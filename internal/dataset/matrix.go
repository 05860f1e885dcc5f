// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package dataset

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/jandre17/ltvpipe/internal/models"
)

// ErrUnknownLevel marks a row whose categorical level never appeared
// when the encoder was fitted. Such rows cannot be scored and must be
// rejected explicitly, never defaulted.
var ErrUnknownLevel = errors.New("categorical level not seen in training")

// numericColumns lists the approved numeric feature columns in
// canonical order. Identifier, churn flag, and raw counts are excluded:
// the counts and the subscription-length target both scale with
// subscription length.
var numericColumns = []string{
	"avg_pages",
	"avg_duration",
	"prop_entered",
	"prop_completed",
	"prop_abandoned",
	"prop_promo",
	"events_per_month",
}

// Encoder maps aggregate rows to feature vectors. The gender category
// is expanded to indicator columns, one per non-baseline level observed
// at fit time; the alphabetically first level is the baseline.
type Encoder struct {
	baseline   string
	indicators []string
	known      map[string]struct{}
}

// NewEncoder fits an encoder on the given rows, collecting the set of
// categorical levels it will accept.
func NewEncoder(rows []models.CustomerAggregate) *Encoder {
	known := make(map[string]struct{})
	for _, row := range rows {
		known[row.Gender] = struct{}{}
	}

	levels := make([]string, 0, len(known))
	for level := range known {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	e := &Encoder{known: known}
	if len(levels) > 0 {
		e.baseline = levels[0]
		e.indicators = levels[1:]
	}
	return e
}

// Columns returns the expanded feature column names: one indicator per
// non-baseline categorical level, then the numeric columns.
func (e *Encoder) Columns() []string {
	cols := make([]string, 0, len(e.indicators)+len(numericColumns))
	for _, level := range e.indicators {
		cols = append(cols, "gender_"+level)
	}
	return append(cols, numericColumns...)
}

// Row encodes a single aggregate into a feature vector. Rows with a
// categorical level unseen at fit time return ErrUnknownLevel.
func (e *Encoder) Row(agg models.CustomerAggregate) ([]float64, error) {
	if _, ok := e.known[agg.Gender]; !ok {
		return nil, fmt.Errorf("%w: gender %q", ErrUnknownLevel, agg.Gender)
	}

	row := make([]float64, 0, len(e.indicators)+len(numericColumns))
	for _, level := range e.indicators {
		if agg.Gender == level {
			row = append(row, 1)
		} else {
			row = append(row, 0)
		}
	}

	return append(row,
		agg.AvgPages,
		agg.AvgDuration,
		agg.PropEntered,
		agg.PropCompleted,
		agg.PropAbandoned,
		agg.PropPromo,
		agg.EventsPerMonth,
	), nil
}

// Target returns the modeling target for an aggregate: the ceiling
// subscription length in whole months.
func Target(agg models.CustomerAggregate) float64 {
	return float64(agg.Months)
}

// Frame is an immutable design matrix with named columns and an
// aligned target vector.
type Frame struct {
	Columns []string
	X       *mat.Dense
	Y       []float64
}

// BuildFrame encodes all rows into a Frame. It fails on the first row
// the encoder cannot represent; callers encoding the rows the encoder
// was fitted on never see that error.
func (e *Encoder) BuildFrame(rows []models.CustomerAggregate) (*Frame, error) {
	cols := e.Columns()
	data := make([]float64, 0, len(rows)*len(cols))
	y := make([]float64, 0, len(rows))

	for i, agg := range rows {
		vec, err := e.Row(agg)
		if err != nil {
			return nil, fmt.Errorf("row %d (customer %s): %w", i, agg.CustomerID, err)
		}
		data = append(data, vec...)
		y = append(y, Target(agg))
	}

	return &Frame{
		Columns: cols,
		X:       mat.NewDense(len(rows), len(cols), data),
		Y:       y,
	}, nil
}

// NumRows returns the number of rows in the frame.
func (f *Frame) NumRows() int {
	r, _ := f.X.Dims()
	return r
}

// NumCols returns the number of feature columns in the frame.
func (f *Frame) NumCols() int {
	_, c := f.X.Dims()
	return c
}

// Subset returns a new frame containing only the given rows, in the
// given order. The receiver is not modified.
func (f *Frame) Subset(rows []int) *Frame {
	cols := f.NumCols()
	data := make([]float64, 0, len(rows)*cols)
	y := make([]float64, 0, len(rows))

	for _, idx := range rows {
		data = append(data, f.X.RawRowView(idx)...)
		y = append(y, f.Y[idx])
	}

	return &Frame{
		Columns: f.Columns,
		X:       mat.NewDense(len(rows), cols, data),
		Y:       y,
	}
}

// Select returns a new frame restricted to the named columns, in the
// given order. The receiver is not modified.
func (f *Frame) Select(names []string) (*Frame, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		j, err := f.columnIndex(name)
		if err != nil {
			return nil, err
		}
		idx = append(idx, j)
	}

	n := f.NumRows()
	data := make([]float64, 0, n*len(idx))
	for i := 0; i < n; i++ {
		row := f.X.RawRowView(i)
		for _, j := range idx {
			data = append(data, row[j])
		}
	}

	return &Frame{
		Columns: append([]string(nil), names...),
		X:       mat.NewDense(n, len(idx), data),
		Y:       append([]float64(nil), f.Y...),
	}, nil
}

// Column returns a copy of the named feature column.
func (f *Frame) Column(name string) ([]float64, error) {
	j, err := f.columnIndex(name)
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, j, f.X), nil
}

func (f *Frame) columnIndex(name string) (int, error) {
	for j, col := range f.Columns {
		if col == name {
			return j, nil
		}
	}
	return 0, fmt.Errorf("frame has no column %q", name)
}
