// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package aggregate

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jandre17/ltvpipe/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func event(id string, d int, mutate ...func(*models.SubscriptionEvent)) models.SubscriptionEvent {
	ev := models.SubscriptionEvent{
		CustomerID: id,
		Status:     models.StatusActive,
		Gender:     "F",
		Date:       day(d),
		Pages:      10,
		Duration:   30,
	}
	for _, m := range mutate {
		m(&ev)
	}
	return ev
}

func terminated(ev *models.SubscriptionEvent) { ev.Status = models.StatusTerminated }

func TestAggregateCompleteness(t *testing.T) {
	// every customer with >= 1 event appears exactly once
	events := []models.SubscriptionEvent{
		event("c3", 0),
		event("c1", 0),
		event("c1", 40),
		event("c2", 10),
		event("c1", 80),
	}

	aggs := New(DefaultConfig()).Aggregate(events)

	if len(aggs) != 3 {
		t.Fatalf("len(aggregates) = %d, want 3", len(aggs))
	}

	seen := make(map[string]int)
	for _, agg := range aggs {
		seen[agg.CustomerID]++
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if seen[id] != 1 {
			t.Errorf("customer %s appears %d times, want 1", id, seen[id])
		}
	}

	// output is sorted by customer ID
	for i := 1; i < len(aggs); i++ {
		if aggs[i-1].CustomerID >= aggs[i].CustomerID {
			t.Errorf("output not ordered: %s before %s", aggs[i-1].CustomerID, aggs[i].CustomerID)
		}
	}
}

func TestAggregateOrderIndependence(t *testing.T) {
	forward := []models.SubscriptionEvent{
		event("c1", 0, func(e *models.SubscriptionEvent) { e.Pages = 5 }),
		event("c1", 30, func(e *models.SubscriptionEvent) { e.Pages = 15 }),
		event("c1", 65, terminated),
	}
	reversed := []models.SubscriptionEvent{forward[2], forward[0], forward[1]}

	a := New(DefaultConfig())
	got := a.Aggregate(reversed)[0]
	want := a.Aggregate(forward)[0]

	if got != want {
		t.Errorf("aggregate differs by input order:\n got %+v\nwant %+v", got, want)
	}
}

func TestAggregateCounts(t *testing.T) {
	events := []models.SubscriptionEvent{
		event("c1", 0, func(e *models.SubscriptionEvent) { e.EnteredCheckout = true }),
		event("c1", 10, func(e *models.SubscriptionEvent) {
			e.EnteredCheckout = true
			e.CompletedCheckout = true
			e.UsedPromo = true
		}),
		event("c1", 20),
		event("c1", 30, terminated),
	}

	agg := New(DefaultConfig()).Aggregate(events)[0]

	if agg.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", agg.TotalEvents)
	}
	if agg.CheckoutsEntered != 2 || agg.CheckoutsCompleted != 1 || agg.CheckoutsAbandoned != 1 {
		t.Errorf("checkout counts = (%d, %d, %d), want (2, 1, 1)",
			agg.CheckoutsEntered, agg.CheckoutsCompleted, agg.CheckoutsAbandoned)
	}
	if agg.PromoUses != 1 {
		t.Errorf("PromoUses = %d, want 1", agg.PromoUses)
	}
	if !agg.Churned {
		t.Error("Churned = false, want true")
	}
}

func TestProportionBounds(t *testing.T) {
	// proportions lie in [0,1] and the mutually exclusive categories
	// (completed, abandoned-after-entry, never entered) sum to one
	events := []models.SubscriptionEvent{
		event("c1", 0, func(e *models.SubscriptionEvent) { e.EnteredCheckout = true }),
		event("c1", 5, func(e *models.SubscriptionEvent) {
			e.EnteredCheckout = true
			e.CompletedCheckout = true
		}),
		event("c1", 12),
		event("c1", 20, func(e *models.SubscriptionEvent) { e.UsedPromo = true }),
	}

	agg := New(DefaultConfig()).Aggregate(events)[0]

	for name, p := range map[string]float64{
		"PropEntered":   agg.PropEntered,
		"PropCompleted": agg.PropCompleted,
		"PropAbandoned": agg.PropAbandoned,
		"PropPromo":     agg.PropPromo,
	} {
		if p < 0 || p > 1 {
			t.Errorf("%s = %g, want in [0, 1]", name, p)
		}
	}

	neverEntered := 1 - agg.PropEntered
	sum := agg.PropCompleted + agg.PropAbandoned + neverEntered
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("proportion categories sum to %g, want 1", sum)
	}
}

func TestCeilingFloor(t *testing.T) {
	tests := []struct {
		name       string
		days       []int
		wantMonths int
	}{
		{name: "single event", days: []int{0}, wantMonths: 1},
		{name: "same day pair", days: []int{5, 5}, wantMonths: 1},
		{name: "under one month", days: []int{0, 20}, wantMonths: 1},
		{name: "just over one month", days: []int{0, 31}, wantMonths: 2},
		{name: "three months", days: []int{0, 30, 75}, wantMonths: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []models.SubscriptionEvent
			for _, d := range tt.days {
				events = append(events, event("c1", d))
			}

			agg := New(DefaultConfig()).Aggregate(events)[0]

			if agg.Months != tt.wantMonths {
				t.Errorf("Months = %d, want %d", agg.Months, tt.wantMonths)
			}
			if agg.Months < 1 {
				t.Errorf("Months = %d, violates floor of 1", agg.Months)
			}
		})
	}
}

func TestTargetAndRate(t *testing.T) {
	cfg := Config{UnitPrice: 25}
	events := []models.SubscriptionEvent{
		event("c1", 0),
		event("c1", 45, terminated), // ~1.48 months -> ceiling 2
	}

	agg := New(cfg).Aggregate(events)[0]

	if agg.Months != 2 {
		t.Fatalf("Months = %d, want 2", agg.Months)
	}
	if agg.LTV != 50 {
		t.Errorf("LTV = %g, want 50", agg.LTV)
	}
	if agg.EventsPerMonth != 1 {
		t.Errorf("EventsPerMonth = %g, want 1", agg.EventsPerMonth)
	}
}

func TestAverageEngagement(t *testing.T) {
	events := []models.SubscriptionEvent{
		event("c1", 0, func(e *models.SubscriptionEvent) { e.Pages = 10; e.Duration = 20 }),
		event("c1", 10, func(e *models.SubscriptionEvent) { e.Pages = 20; e.Duration = 40 }),
		// Terminal events count toward the averages like any other.
		event("c1", 20, terminated, func(e *models.SubscriptionEvent) { e.Pages = 0; e.Duration = 0 }),
	}

	agg := New(DefaultConfig()).Aggregate(events)[0]

	if math.Abs(agg.AvgPages-10) > 1e-12 {
		t.Errorf("AvgPages = %g, want 10", agg.AvgPages)
	}
	if math.Abs(agg.AvgDuration-20) > 1e-12 {
		t.Errorf("AvgDuration = %g, want 20", agg.AvgDuration)
	}
}

func TestModelingSubset(t *testing.T) {
	var events []models.SubscriptionEvent
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("c%02d", i)
		events = append(events, event(id, 0))
		if i%2 == 0 {
			events = append(events, event(id, 30, terminated))
		}
	}

	aggs := New(DefaultConfig()).Aggregate(events)
	subset := ModelingSubset(aggs)

	if len(subset) != 5 {
		t.Fatalf("len(subset) = %d, want 5", len(subset))
	}
	for _, agg := range subset {
		if !agg.Churned {
			t.Errorf("customer %s in modeling subset but not churned", agg.CustomerID)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	aggs := New(DefaultConfig()).Aggregate(nil)
	if len(aggs) != 0 {
		t.Errorf("len(aggregates) = %d, want 0", len(aggs))
	}
}
