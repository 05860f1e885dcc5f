// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split partitions the index range [0, n) into disjoint, exhaustive
// train and test sets. The test set holds round(fraction*n) indices
// chosen by a generator constructed from seed, so the same seed and n
// always produce the identical partition. Both slices are sorted.
func Split(n int, fraction float64, seed int64) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("split: no rows to partition")
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("split: fraction must be in (0, 1), got %g", fraction)
	}

	testSize := int(math.Round(fraction * float64(n)))
	if testSize == 0 {
		return nil, nil, fmt.Errorf("split: fraction %g of %d rows leaves an empty test set", fraction, n)
	}
	if testSize == n {
		return nil, nil, fmt.Errorf("split: fraction %g of %d rows leaves an empty training set", fraction, n)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	test = append([]int(nil), perm[:testSize]...)
	train = append([]int(nil), perm[testSize:]...)
	sort.Ints(test)
	sort.Ints(train)

	return train, test, nil
}
