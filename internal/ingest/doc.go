// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package ingest loads the raw subscription-event table into memory.
//
// Two readers are provided: CSVReader for plain flat files and
// DuckDBReader for DuckDB databases, attached SQLite databases, and
// large CSV files ingested through DuckDB's read_csv.
//
// Malformed input (missing columns, unparseable timestamps, unknown
// status or flag values) is rejected before aggregation begins, with
// the offending row and column named in the error. Nothing is silently
// coerced.
package ingest
