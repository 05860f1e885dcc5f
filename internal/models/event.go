// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package models

import (
	"fmt"
	"time"
)

// SubscriptionStatus is the lifecycle state recorded on an event.
type SubscriptionStatus string

// Lifecycle states as they appear in the raw event table.
const (
	StatusNew        SubscriptionStatus = "new"
	StatusActive     SubscriptionStatus = "active"
	StatusTerminated SubscriptionStatus = "terminated"
)

// ParseStatus converts a raw status string into a SubscriptionStatus.
// Unknown values are rejected rather than coerced so that malformed
// input surfaces before aggregation.
func ParseStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case StatusNew, StatusActive, StatusTerminated:
		return SubscriptionStatus(s), nil
	default:
		return "", fmt.Errorf("unknown subscription status %q", s)
	}
}

// SubscriptionEvent is one row of the raw event table: a single
// customer's activity within one billing period.
type SubscriptionEvent struct {
	// CustomerID identifies the customer. Not unique across the table;
	// a customer contributes one event per observed period.
	CustomerID string

	// Status is the lifecycle state at this period.
	Status SubscriptionStatus

	// Gender is the customer's recorded gender category.
	Gender string

	// Date is the period timestamp.
	Date time.Time

	// Pages is the number of pages viewed during the period.
	Pages float64

	// Duration is the total session time in minutes during the period.
	Duration float64

	// EnteredCheckout reports whether the customer entered the
	// checkout funnel during the period.
	EnteredCheckout bool

	// CompletedCheckout reports whether the customer completed a
	// checkout during the period.
	CompletedCheckout bool

	// UsedPromo reports whether the customer used a promotional
	// variant during the period.
	UsedPromo bool
}

// Terminated reports whether this event records a subscription
// termination.
func (e SubscriptionEvent) Terminated() bool {
	return e.Status == StatusTerminated
}
