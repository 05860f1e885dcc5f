// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jandre17/ltvpipe/internal/models"
)

// Reader loads the full event table into memory.
type Reader interface {
	ReadEvents(ctx context.Context) ([]models.SubscriptionEvent, error)
}

// ErrMissingColumn marks an event table lacking a required column.
var ErrMissingColumn = errors.New("event table missing required column")

// ErrInconsistentFlags marks a row whose funnel flags contradict each
// other. A checkout cannot complete without being entered; downstream
// abandonment counts assume entered >= completed.
var ErrInconsistentFlags = errors.New("completed_checkout set without entered_checkout")

// requiredColumns lists the event-table schema in canonical order.
var requiredColumns = []string{
	"customer_id",
	"status",
	"gender",
	"date",
	"pages",
	"duration",
	"entered_checkout",
	"completed_checkout",
	"used_promo",
}

// dateLayouts are the accepted timestamp formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVReader reads events from a header-mapped CSV file.
type CSVReader struct {
	path string
}

// NewCSVReader creates a reader for the given CSV file.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// ReadEvents reads and validates every row of the file. Any malformed
// row aborts the read; partial tables are never returned.
func (r *CSVReader) ReadEvents(ctx context.Context) ([]models.SubscriptionEvent, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var events []models.SubscriptionEvent
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ev, err := parseEvent(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// mapHeader resolves column names to indices and rejects tables with
// missing required columns. Extra columns are tolerated and ignored.
func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	return cols, nil
}

// parseEvent converts one CSV record into a SubscriptionEvent.
func parseEvent(record []string, cols map[string]int) (models.SubscriptionEvent, error) {
	var ev models.SubscriptionEvent

	field := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(record) {
			return "", fmt.Errorf("column %s: record too short", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	id, err := field("customer_id")
	if err != nil {
		return ev, err
	}
	if id == "" {
		return ev, fmt.Errorf("column customer_id: empty value")
	}
	ev.CustomerID = id

	rawStatus, err := field("status")
	if err != nil {
		return ev, err
	}
	ev.Status, err = models.ParseStatus(rawStatus)
	if err != nil {
		return ev, fmt.Errorf("column status: %w", err)
	}

	ev.Gender, err = field("gender")
	if err != nil {
		return ev, err
	}

	rawDate, err := field("date")
	if err != nil {
		return ev, err
	}
	ev.Date, err = parseDate(rawDate)
	if err != nil {
		return ev, fmt.Errorf("column date: %w", err)
	}

	if ev.Pages, err = parseFloat(record, cols, "pages"); err != nil {
		return ev, err
	}
	if ev.Duration, err = parseFloat(record, cols, "duration"); err != nil {
		return ev, err
	}

	if ev.EnteredCheckout, err = parseFlag(record, cols, "entered_checkout"); err != nil {
		return ev, err
	}
	if ev.CompletedCheckout, err = parseFlag(record, cols, "completed_checkout"); err != nil {
		return ev, err
	}
	if ev.UsedPromo, err = parseFlag(record, cols, "used_promo"); err != nil {
		return ev, err
	}
	if ev.CompletedCheckout && !ev.EnteredCheckout {
		return ev, ErrInconsistentFlags
	}

	return ev, nil
}

// parseDate tries each accepted timestamp layout in order.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseFloat(record []string, cols map[string]int, name string) (float64, error) {
	idx := cols[name]
	if idx >= len(record) {
		return 0, fmt.Errorf("column %s: record too short", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// parseFlag accepts 0/1 and true/false spellings of binary flags.
func parseFlag(record []string, cols map[string]int, name string) (bool, error) {
	idx := cols[name]
	if idx >= len(record) {
		return false, fmt.Errorf("column %s: record too short", name)
	}
	switch strings.ToLower(strings.TrimSpace(record[idx])) {
	case "1", "true", "t":
		return true, nil
	case "0", "false", "f":
		return false, nil
	default:
		return false, fmt.Errorf("column %s: not a binary flag: %q", name, record[idx])
	}
}

// Ensure interface compliance.
var _ Reader = (*CSVReader)(nil)
