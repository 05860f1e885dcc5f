// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SubscriptionStatus
		wantErr bool
	}{
		{name: "new", input: "new", want: StatusNew},
		{name: "active", input: "active", want: StatusActive},
		{name: "terminated", input: "terminated", want: StatusTerminated},
		{name: "unknown value rejected", input: "cancelled", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "case sensitive", input: "Active", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubscriptionEventTerminated(t *testing.T) {
	if (SubscriptionEvent{Status: StatusActive}).Terminated() {
		t.Error("active event reported terminated")
	}
	if !(SubscriptionEvent{Status: StatusTerminated}).Terminated() {
		t.Error("terminated event not reported terminated")
	}
}
