// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// DuckDB driver - also used with the SQLite extension for reading
	// legacy SQLite event exports.
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/jandre17/ltvpipe/internal/models"
)

// DuckDBReader reads events through an in-memory DuckDB connection.
// It handles three file kinds:
//
//   - *.duckdb / *.db: attached as a native DuckDB database
//   - *.sqlite: attached through the sqlite_scanner extension
//   - *.csv: scanned with read_csv (header inference)
type DuckDBReader struct {
	db    *sql.DB
	from  string
	path  string
	table string
}

// NewDuckDBReader opens an in-memory DuckDB connection and prepares
// the relation to read events from. Close must be called when done.
func NewDuckDBReader(path, table string) (*DuckDBReader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	r := &DuckDBReader{db: db, path: path, table: table}

	switch {
	case strings.HasSuffix(path, ".csv"):
		r.from = "read_csv(?)"
	case strings.HasSuffix(path, ".sqlite"):
		if err := r.attachSQLite(); err != nil {
			db.Close() //nolint:errcheck // best-effort cleanup on error path
			return nil, err
		}
		r.from = table
	default:
		if err := r.attachDuckDB(); err != nil {
			db.Close() //nolint:errcheck // best-effort cleanup on error path
			return nil, err
		}
		r.from = "events_db." + table
	}

	return r, nil
}

// attachDuckDB attaches the event database file read-only.
func (r *DuckDBReader) attachDuckDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "ATTACH ? AS events_db (READ_ONLY)", r.path); err != nil {
		return fmt.Errorf("attach database: %w", err)
	}
	return nil
}

// attachSQLite installs the sqlite_scanner extension and attaches the
// SQLite file so its tables can be queried directly.
func (r *DuckDBReader) attachSQLite() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "INSTALL sqlite_scanner;"); err != nil {
		if _, loadErr := r.db.ExecContext(ctx, "LOAD sqlite_scanner;"); loadErr != nil {
			return fmt.Errorf("install error: %w, load error: %w", err, loadErr)
		}
		return r.callAttach(ctx)
	}

	if _, err := r.db.ExecContext(ctx, "LOAD sqlite_scanner;"); err != nil {
		return fmt.Errorf("load sqlite extension: %w", err)
	}
	return r.callAttach(ctx)
}

func (r *DuckDBReader) callAttach(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "CALL sqlite_attach(?)", r.path); err != nil {
		return fmt.Errorf("sqlite_attach: %w", err)
	}
	return nil
}

// ReadEvents loads and validates the full event table.
func (r *DuckDBReader) ReadEvents(ctx context.Context) ([]models.SubscriptionEvent, error) {
	query := fmt.Sprintf(`
		SELECT
			CAST(customer_id AS VARCHAR),
			CAST(status AS VARCHAR),
			CAST(gender AS VARCHAR),
			CAST(date AS TIMESTAMP),
			CAST(pages AS DOUBLE),
			CAST(duration AS DOUBLE),
			CAST(entered_checkout AS BOOLEAN),
			CAST(completed_checkout AS BOOLEAN),
			CAST(used_promo AS BOOLEAN)
		FROM %s`, r.from)

	var rows *sql.Rows
	var err error
	if strings.Contains(r.from, "read_csv") {
		rows, err = r.db.QueryContext(ctx, query, r.path)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		// A missing column surfaces as a binder error on the CAST
		// list; report it under the same class as the CSV reader.
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "does not exist") {
			return nil, fmt.Errorf("%w: %v", ErrMissingColumn, err)
		}
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var events []models.SubscriptionEvent
	for rows.Next() {
		var (
			ev        models.SubscriptionEvent
			rawStatus string
		)
		if err := rows.Scan(
			&ev.CustomerID,
			&rawStatus,
			&ev.Gender,
			&ev.Date,
			&ev.Pages,
			&ev.Duration,
			&ev.EnteredCheckout,
			&ev.CompletedCheckout,
			&ev.UsedPromo,
		); err != nil {
			return nil, fmt.Errorf("scan event row %d: %w", len(events)+1, err)
		}

		ev.Status, err = models.ParseStatus(rawStatus)
		if err != nil {
			return nil, fmt.Errorf("event row %d: %w", len(events)+1, err)
		}
		if ev.CompletedCheckout && !ev.EnteredCheckout {
			return nil, fmt.Errorf("event row %d: %w", len(events)+1, ErrInconsistentFlags)
		}

		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	return events, nil
}

// Close releases the DuckDB connection.
func (r *DuckDBReader) Close() error {
	return r.db.Close()
}

// Ensure interface compliance.
var _ Reader = (*DuckDBReader)(nil)
