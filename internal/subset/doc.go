// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package subset selects regression predictors by exhaustive
// best-subset search scored with the Bayesian information criterion.
// The enumeration visits all 2^p - 1 non-empty subsets, so use is
// capped at small feature counts.
package subset
