// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package models

// CustomerAggregate is one row of the customer feature table: the fold
// of every event recorded for a single customer. Aggregates are built
// once from the full event set and never updated incrementally.
type CustomerAggregate struct {
	// CustomerID identifies the customer. Carried through for joins
	// and reporting; excluded from modeling.
	CustomerID string `json:"customer_id"`

	// Gender is the customer's gender category, retained as a
	// modeling feature.
	Gender string `json:"gender"`

	// Churned is true if any event for this customer has status
	// terminated. Only churned customers have an observed,
	// non-censored subscription length.
	Churned bool `json:"churned"`

	// Count aggregates over all of the customer's events.
	TotalEvents        int `json:"total_events"`
	CheckoutsEntered   int `json:"checkouts_entered"`
	CheckoutsCompleted int `json:"checkouts_completed"`
	CheckoutsAbandoned int `json:"checkouts_abandoned"` // entered minus completed
	PromoUses          int `json:"promo_uses"`

	// Averaged engagement measures per event.
	AvgPages    float64 `json:"avg_pages"`
	AvgDuration float64 `json:"avg_duration"`

	// MonthsExact is the elapsed time between the customer's first and
	// last event in fractional months (mean Gregorian month length).
	MonthsExact float64 `json:"months_exact"`

	// Months is the ceiling of MonthsExact with a floor of one whole
	// month. This is the modeling target: a customer observed at all
	// is billed for at least one month.
	Months int `json:"months"`

	// LTV is the monetized subscription length: unit price x Months.
	LTV float64 `json:"ltv"`

	// Proportion aggregates: each count divided by TotalEvents.
	PropEntered   float64 `json:"prop_entered"`
	PropCompleted float64 `json:"prop_completed"`
	PropAbandoned float64 `json:"prop_abandoned"`
	PropPromo     float64 `json:"prop_promo"`

	// EventsPerMonth is TotalEvents divided by Months.
	EventsPerMonth float64 `json:"events_per_month"`
}
