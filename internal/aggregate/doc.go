// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package aggregate collapses the per-period event table into one
// feature row per customer: activity counts, checkout proportions,
// averaged engagement, and the ceiling subscription length that serves
// as the modeling target.
package aggregate
