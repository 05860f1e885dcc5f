// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package eval scores fitted models against held-out customer rows.
// It computes error metrics and per-row predictions for every model
// family on identical terms; choosing among models is left to the
// reader of the report.
package eval
