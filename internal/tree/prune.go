// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package tree

import (
	"fmt"
	"math"

	"github.com/jandre17/ltvpipe/internal/dataset"
)

// CVPoint is the cross-validated error at one complexity penalty.
type CVPoint struct {
	Alpha   float64 `json:"alpha"`
	Leaves  int     `json:"leaves"`
	MeanMSE float64 `json:"mean_mse"`
}

// PruneResult describes a completed cost-complexity pruning pass.
type PruneResult struct {
	// Alpha is the chosen complexity penalty.
	Alpha float64 `json:"alpha"`

	// Leaves is the terminal-node count of the pruned tree.
	Leaves int `json:"leaves"`

	// CV is the cross-validation curve over candidate penalties,
	// ascending. Leaves counts refer to the full-data tree pruned at
	// that penalty.
	CV []CVPoint `json:"cv"`
}

// Prune runs cost-complexity pruning with cross-validated deviance.
// Candidate penalties come from the weakest-link alpha sequence of the
// full tree; each fold regrows a tree on its training rows and scores
// every candidate on the held-out rows. The penalty with the smallest
// mean validation MSE wins; ties go to the larger penalty, which keeps
// fewer leaves. A pruned copy is returned; the receiver is unchanged.
func (t *Tree) Prune(frame *dataset.Frame, folds [][]int) (*Tree, *PruneResult, error) {
	if len(folds) < 2 {
		return nil, nil, fmt.Errorf("prune: need at least 2 folds, got %d", len(folds))
	}

	candidates := candidateAlphas(alphaSequence(t.Root))

	foldMSE := make([][]float64, len(folds))
	for f, fold := range folds {
		trainIdx := dataset.Complement(fold, frame.NumRows())
		foldTree, err := Fit(frame.Subset(trainIdx), t.cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("prune fold %d: %w", f, err)
		}
		valFrame := frame.Subset(fold)

		foldMSE[f] = make([]float64, len(candidates))
		for ci, alpha := range candidates {
			pruned := foldTree.pruneToAlpha(alpha)

			var sseVal float64
			for i := 0; i < valFrame.NumRows(); i++ {
				pred, err := pruned.Predict(valFrame.X.RawRowView(i))
				if err != nil {
					return nil, nil, err
				}
				r := valFrame.Y[i] - pred
				sseVal += r * r
			}
			foldMSE[f][ci] = sseVal / float64(valFrame.NumRows())
		}
	}

	res := &PruneResult{}
	bestIdx := 0
	bestMSE := math.Inf(1)
	for ci, alpha := range candidates {
		var mean float64
		for f := range folds {
			mean += foldMSE[f][ci]
		}
		mean /= float64(len(folds))

		res.CV = append(res.CV, CVPoint{
			Alpha:   alpha,
			Leaves:  t.pruneToAlpha(alpha).Leaves(),
			MeanMSE: mean,
		})

		// Candidates ascend, so keeping ties hands the win to the
		// larger penalty and the smaller tree.
		if mean <= bestMSE {
			bestMSE = mean
			bestIdx = ci
		}
	}

	pruned := t.pruneToAlpha(candidates[bestIdx])
	res.Alpha = candidates[bestIdx]
	res.Leaves = pruned.Leaves()
	return pruned, res, nil
}

// pruneToAlpha returns a copy collapsed until every remaining internal
// node's weakest-link value exceeds alpha.
func (t *Tree) pruneToAlpha(alpha float64) *Tree {
	root := cloneNode(t.Root)
	for {
		weakest, g := weakestLink(root)
		if weakest == nil || g > alpha {
			break
		}
		collapseAt(root, g)
	}
	return &Tree{
		Root:     root,
		Columns:  t.Columns,
		Warnings: t.Warnings,
		cfg:      t.cfg,
		rootSSE:  t.rootSSE,
	}
}

// alphaSequence computes the non-decreasing weakest-link penalties at
// which the tree's nested pruning sequence shrinks.
func alphaSequence(root *Node) []float64 {
	work := cloneNode(root)

	var alphas []float64
	for !work.IsLeaf() {
		_, g := weakestLink(work)
		alphas = append(alphas, g)
		collapseAt(work, g)
	}
	return alphas
}

// candidateAlphas turns the pruning sequence into evaluation
// penalties: zero for the full tree, geometric means between adjacent
// sequence values, and the final value for the root-only tree.
func candidateAlphas(alphas []float64) []float64 {
	candidates := []float64{0}
	for i := 0; i+1 < len(alphas); i++ {
		candidates = append(candidates, math.Sqrt(alphas[i]*alphas[i+1]))
	}
	if len(alphas) > 0 {
		candidates = append(candidates, alphas[len(alphas)-1])
	}
	return candidates
}

// weakestLink returns the internal node with the smallest
// cost-complexity value g = (R(t) - R(T_t)) / (|T_t| - 1), where R is
// training deviance and T_t the subtree rooted at t.
func weakestLink(root *Node) (*Node, float64) {
	var weakest *Node
	minG := math.Inf(1)

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		if g := linkValue(n); g < minG {
			minG = g
			weakest = n
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(root)
	return weakest, minG
}

func linkValue(n *Node) float64 {
	return (n.Deviance - subtreeDeviance(n)) / float64(countLeaves(n)-1)
}

// collapseAt turns every internal node whose link value equals g into
// a leaf, collapsing equal-valued links together so the sequence stays
// nested.
func collapseAt(root *Node, g float64) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		if linkValue(n) == g {
			n.Left = nil
			n.Right = nil
			n.Column = ""
			n.Threshold = 0
			n.feature = -1
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(root)
}

// subtreeDeviance sums leaf deviances below n.
func subtreeDeviance(n *Node) float64 {
	if n.IsLeaf() {
		return n.Deviance
	}
	return subtreeDeviance(n.Left) + subtreeDeviance(n.Right)
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Left = cloneNode(n.Left)
	c.Right = cloneNode(n.Right)
	return &c
}
