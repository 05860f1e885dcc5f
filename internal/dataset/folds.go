// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// KFold partitions the index range [0, n) into k disjoint validation
// folds of near-equal size (differing by at most one). The same seed
// reproduces the identical folds, which lets the lasso fitter and the
// tree pruner cross-validate on the same partitions.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("kfold: need at least 2 folds, got %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("kfold: %d folds exceed %d rows", k, n)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	folds := make([][]int, k)
	base := n / k
	extra := n % k

	offset := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		folds[f] = append([]int(nil), perm[offset:offset+size]...)
		sort.Ints(folds[f])
		offset += size
	}

	return folds, nil
}

// Complement returns the indices of [0, n) not present in fold, in
// ascending order. Used to form the training portion of a CV round.
func Complement(fold []int, n int) []int {
	inFold := make(map[int]struct{}, len(fold))
	for _, idx := range fold {
		inFold[idx] = struct{}{}
	}

	rest := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if _, ok := inFold[i]; !ok {
			rest = append(rest, i)
		}
	}
	return rest
}
