// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jandre17/ltvpipe/internal/models"
)

// daysPerMonth is the mean Gregorian month length used to convert
// elapsed time to fractional months.
const daysPerMonth = 30.4375

// Config contains configuration for the customer aggregator.
type Config struct {
	// UnitPrice is the monthly subscription price used to monetize
	// the subscription-length target.
	UnitPrice float64
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{UnitPrice: 10.0}
}

// Aggregator folds per-period events into one feature row per
// customer. It is a pure transform: input order does not matter and
// the input slice is never modified.
type Aggregator struct {
	config Config
}

// New creates an Aggregator with the given configuration.
func New(cfg Config) *Aggregator {
	if cfg.UnitPrice <= 0 {
		cfg.UnitPrice = 10.0
	}
	return &Aggregator{config: cfg}
}

// Aggregate builds the customer aggregate table from the full event
// set. Every customer with at least one event appears exactly once;
// customers with no events cannot appear. Output is ordered by
// customer ID so repeated runs produce identical tables.
func (a *Aggregator) Aggregate(events []models.SubscriptionEvent) []models.CustomerAggregate {
	byCustomer := make(map[string][]models.SubscriptionEvent)
	for _, ev := range events {
		byCustomer[ev.CustomerID] = append(byCustomer[ev.CustomerID], ev)
	}

	ids := make([]string, 0, len(byCustomer))
	for id := range byCustomer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	aggregates := make([]models.CustomerAggregate, 0, len(ids))
	for _, id := range ids {
		aggregates = append(aggregates, a.fold(id, byCustomer[id]))
	}

	return aggregates
}

// fold collapses one customer's events into a single aggregate row.
// Averages run over every event, including the terminal one.
func (a *Aggregator) fold(id string, events []models.SubscriptionEvent) models.CustomerAggregate {
	ordered := make([]models.SubscriptionEvent, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	agg := models.CustomerAggregate{
		CustomerID:  id,
		Gender:      ordered[0].Gender,
		TotalEvents: len(ordered),
	}

	pages := make([]float64, 0, len(ordered))
	durations := make([]float64, 0, len(ordered))
	for _, ev := range ordered {
		if ev.Terminated() {
			agg.Churned = true
		}
		if ev.EnteredCheckout {
			agg.CheckoutsEntered++
		}
		if ev.CompletedCheckout {
			agg.CheckoutsCompleted++
		}
		if ev.UsedPromo {
			agg.PromoUses++
		}
		pages = append(pages, ev.Pages)
		durations = append(durations, ev.Duration)
	}
	agg.CheckoutsAbandoned = agg.CheckoutsEntered - agg.CheckoutsCompleted

	agg.AvgPages = stat.Mean(pages, nil)
	agg.AvgDuration = stat.Mean(durations, nil)

	first, last := ordered[0].Date, ordered[len(ordered)-1].Date
	agg.MonthsExact = last.Sub(first).Hours() / (24 * daysPerMonth)

	// A single-event history has zero elapsed time; the customer is
	// still billed for one whole month.
	agg.Months = int(math.Ceil(agg.MonthsExact))
	if agg.Months < 1 {
		agg.Months = 1
	}
	agg.LTV = a.config.UnitPrice * float64(agg.Months)

	n := float64(agg.TotalEvents)
	agg.PropEntered = float64(agg.CheckoutsEntered) / n
	agg.PropCompleted = float64(agg.CheckoutsCompleted) / n
	agg.PropAbandoned = float64(agg.CheckoutsAbandoned) / n
	agg.PropPromo = float64(agg.PromoUses) / n
	agg.EventsPerMonth = n / float64(agg.Months)

	return agg
}

// ModelingSubset restricts the aggregate table to customers with an
// observed, non-censored subscription length: those that churned.
func ModelingSubset(aggregates []models.CustomerAggregate) []models.CustomerAggregate {
	subset := make([]models.CustomerAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		if agg.Churned {
			subset = append(subset, agg)
		}
	}
	return subset
}
