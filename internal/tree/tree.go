// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package tree

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jandre17/ltvpipe/internal/dataset"
)

// varianceFloor is the sample variance below which a feature column is
// treated as constant. A constant column can never produce a threshold
// and is reported as a warning on the fitted tree.
const varianceFloor = 1e-12

// Config contains configuration for growing a regression tree.
type Config struct {
	// MinSplit is the smallest node size still eligible for
	// splitting.
	MinSplit int

	// MinLeaf is the smallest row count allowed in a child node.
	MinLeaf int

	// MaxDepth bounds the recursion. The root is at depth 0.
	MaxDepth int

	// MinGain is the smallest within-node error reduction that
	// justifies a split, as a fraction of the root node's error.
	MinGain float64
}

// DefaultConfig returns the default tree-growing configuration.
func DefaultConfig() Config {
	return Config{
		MinSplit: 20,
		MinLeaf:  7,
		MaxDepth: 30,
		MinGain:  0.01,
	}
}

// Node is one node of a fitted regression tree. Internal nodes route
// rows by a single threshold comparison; leaves predict the mean
// target of the training rows routed to them.
type Node struct {
	// Column names the splitting feature. Empty on leaves.
	Column string `json:"column,omitempty"`

	// Threshold splits rows: value <= Threshold goes left.
	Threshold float64 `json:"threshold,omitempty"`

	// Prediction is the mean training target at this node.
	Prediction float64 `json:"prediction"`

	// Count is the number of training rows routed here.
	Count int `json:"count"`

	// Deviance is the sum of squared target deviations at this node.
	Deviance float64 `json:"deviance"`

	Left  *Node `json:"left,omitempty"`
	Right *Node `json:"right,omitempty"`

	feature int // column index; -1 on leaves
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// Tree is a fitted regression tree.
type Tree struct {
	Root *Node `json:"root"`

	// Columns are the feature columns the tree was grown on, in
	// design-matrix order.
	Columns []string `json:"columns"`

	// Warnings flags degenerate training columns. A near-constant
	// feature can never host a threshold and silently drops out of the
	// fit.
	Warnings []string `json:"warnings,omitempty"`

	cfg     Config
	rootSSE float64
}

// Fit grows a binary regression tree. At every node each feature is
// scanned in fixed column order and candidate thresholds are midpoints
// between adjacent distinct sorted values; a later candidate must
// strictly improve the split error to displace an earlier one, so
// fitting is deterministic for a given frame and configuration.
func Fit(frame *dataset.Frame, cfg Config) (*Tree, error) {
	n := frame.NumRows()
	if n == 0 {
		return nil, errors.New("tree: no training rows")
	}
	if cfg.MinLeaf < 1 {
		return nil, fmt.Errorf("tree: min leaf %d, want >= 1", cfg.MinLeaf)
	}
	if cfg.MinSplit < 2*cfg.MinLeaf {
		return nil, fmt.Errorf("tree: min split %d cannot produce two children of %d rows", cfg.MinSplit, cfg.MinLeaf)
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	t := &Tree{
		Columns:  append([]string(nil), frame.Columns...),
		Warnings: degenerateColumns(frame),
		cfg:      cfg,
		rootSSE:  sse(frame, rows),
	}
	t.Root = t.grow(frame, rows, 0)
	return t, nil
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

// Predict routes one feature row to a leaf and returns its mean.
func (t *Tree) Predict(row []float64) (float64, error) {
	if len(row) != len(t.Columns) {
		return 0, fmt.Errorf("predict: row has %d features, model expects %d", len(row), len(t.Columns))
	}

	node := t.Root
	for !node.IsLeaf() {
		if row[node.feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prediction, nil
}

// Leaves returns the number of terminal nodes.
func (t *Tree) Leaves() int {
	return countLeaves(t.Root)
}

func countLeaves(n *Node) int {
	if n.IsLeaf() {
		return 1
	}
	return countLeaves(n.Left) + countLeaves(n.Right)
}

func (t *Tree) grow(frame *dataset.Frame, rows []int, depth int) *Node {
	node := &Node{
		Prediction: meanTarget(frame, rows),
		Count:      len(rows),
		Deviance:   sse(frame, rows),
		feature:    -1,
	}

	if len(rows) < t.cfg.MinSplit || depth >= t.cfg.MaxDepth || node.Deviance == 0 {
		return node
	}

	best, ok := t.bestSplit(frame, rows)
	if !ok {
		return node
	}
	if node.Deviance-best.childSSE < t.cfg.MinGain*t.rootSSE {
		return node
	}

	node.feature = best.feature
	node.Column = frame.Columns[best.feature]
	node.Threshold = best.threshold
	node.Left = t.grow(frame, best.left, depth+1)
	node.Right = t.grow(frame, best.right, depth+1)
	return node
}

type split struct {
	feature   int
	threshold float64
	childSSE  float64
	left      []int
	right     []int
}

// bestSplit scans every (feature, threshold) candidate and returns the
// one minimizing the summed child squared error, honoring MinLeaf.
func (t *Tree) bestSplit(frame *dataset.Frame, rows []int) (split, bool) {
	best := split{childSSE: math.Inf(1)}
	found := false

	order := make([]int, len(rows))
	for f := 0; f < len(t.Columns); f++ {
		copy(order, rows)
		sort.SliceStable(order, func(a, b int) bool {
			return frame.X.At(order[a], f) < frame.X.At(order[b], f)
		})

		// Prefix sums over the sorted order let each candidate's child
		// errors come from one subtraction.
		var sumL, sumSqL float64
		var sumT, sumSqT float64
		for _, idx := range order {
			y := frame.Y[idx]
			sumT += y
			sumSqT += y * y
		}

		for i := 0; i < len(order)-1; i++ {
			y := frame.Y[order[i]]
			sumL += y
			sumSqL += y * y

			nl := i + 1
			nr := len(order) - nl
			if nl < t.cfg.MinLeaf || nr < t.cfg.MinLeaf {
				continue
			}

			v, next := frame.X.At(order[i], f), frame.X.At(order[i+1], f)
			if v == next {
				continue
			}

			sseL := sumSqL - sumL*sumL/float64(nl)
			sumR := sumT - sumL
			sseR := (sumSqT - sumSqL) - sumR*sumR/float64(nr)

			if total := sseL + sseR; total < best.childSSE {
				best = split{
					feature:   f,
					threshold: (v + next) / 2,
					childSSE:  total,
					left:      append([]int(nil), order[:nl]...),
					right:     append([]int(nil), order[nl:]...),
				}
				found = true
			}
		}
	}

	return best, found
}

func meanTarget(frame *dataset.Frame, rows []int) float64 {
	var sum float64
	for _, idx := range rows {
		sum += frame.Y[idx]
	}
	return sum / float64(len(rows))
}

// sse is the sum of squared deviations of the target over the rows.
func sse(frame *dataset.Frame, rows []int) float64 {
	mean := meanTarget(frame, rows)
	var total float64
	for _, idx := range rows {
		d := frame.Y[idx] - mean
		total += d * d
	}
	return total
}
