// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package models defines the data model shared across the pipeline:
// the raw per-period subscription event and the per-customer aggregate
// derived from it.
//
// Events are read-only input. Aggregates are derived once per run and
// held in memory only for the duration of the run; nothing is
// persisted.
package models
