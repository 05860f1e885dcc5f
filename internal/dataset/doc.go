// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package dataset prepares aggregate rows for modeling: reproducible
// train/test splits, the shared cross-validation fold generator, and
// design-matrix construction with categorical indicator expansion.
//
// All randomization is driven by constructed generators seeded from
// configuration; nothing touches global random state, so identical
// seeds reproduce identical partitions under parallel test execution.
package dataset
