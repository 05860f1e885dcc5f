// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package main is the entry point for the ltv batch pipeline.
//
// The pipeline reads a raw subscription-event table, folds it into one
// feature row per customer, splits the churned customers into train
// and test sets, fits three model families (subset-selected OLS, an
// L1-penalized path with cross-validated penalty selection, and a
// pruned regression tree), scores every model on the same held-out
// rows, and writes a single JSON run report. Choosing among the
// models is left to whoever reads the report.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (EVENTS_PATH, SPLIT_SEED, CV_FOLDS, ...)
//   - Config file (ltvpipe.yaml, or LTV_CONFIG_PATH)
//   - Built-in defaults
//
// # Example Usage
//
// Read events from a CSV file and print the report:
//
//	export EVENTS_PATH=events.csv
//	./ltv
//
// Read from a DuckDB database and write the report to a file:
//
//	export EVENTS_SOURCE=duckdb
//	export EVENTS_PATH=analytics.duckdb
//	export EVENTS_TABLE=subscription_events
//	export REPORT_PATH=report.json
//	./ltv
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jandre17/ltvpipe/internal/config"
	"github.com/jandre17/ltvpipe/internal/ingest"
	"github.com/jandre17/ltvpipe/internal/logging"
	"github.com/jandre17/ltvpipe/internal/models"
	"github.com/jandre17/ltvpipe/internal/pipeline"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("source", cfg.Events.Source).
		Str("path", cfg.Events.Path).
		Int64("seed", cfg.Pipeline.Seed).
		Msg("Starting ltv pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := readEvents(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read event table")
	}
	logging.Info().Int("events", len(events)).Msg("Event table loaded")

	report, err := pipeline.Run(ctx, events, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Pipeline run failed")
	}

	if err := writeReport(report, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write report")
	}
	logging.Info().Str("run_id", report.RunID).Msg("Report written")
}

func readEvents(ctx context.Context, cfg *config.Config) ([]models.SubscriptionEvent, error) {
	switch cfg.Events.Source {
	case "duckdb":
		reader, err := ingest.NewDuckDBReader(cfg.Events.Path, cfg.Events.Table)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := reader.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event database")
			}
		}()
		return reader.ReadEvents(ctx)
	default:
		return ingest.NewCSVReader(cfg.Events.Path).ReadEvents(ctx)
	}
}

func writeReport(report *pipeline.Report, cfg *config.Config) error {
	if cfg.Report.Path == "-" || cfg.Report.Path == "" {
		return report.Write(os.Stdout, cfg.Report.Pretty)
	}

	f, err := os.Create(cfg.Report.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing report file")
		}
	}()
	return report.Write(f, cfg.Report.Pretty)
}
