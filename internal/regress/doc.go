// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package regress implements the linear model families: ordinary
// least squares with coefficient inference, and an L1-penalized
// (lasso) fit swept over a descending penalty path with k-fold
// cross-validation.
//
// Both fitters flag near-constant features as degenerate rather than
// emitting unstable coefficients for them.
package regress
