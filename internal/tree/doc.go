// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package tree grows binary regression trees by recursive
// least-squares splitting and prunes them with cost-complexity
// pruning driven by cross-validated deviance.
package tree
