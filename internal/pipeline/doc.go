// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package pipeline orchestrates one end-to-end modeling run: event
// aggregation, the train/test split, the three model families, and
// evaluation on the shared held-out rows. Data flows strictly forward;
// no stage feeds back into an earlier one.
package pipeline
