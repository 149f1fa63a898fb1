package models

import (
	"errors"
	"testing"
)

func TestNextPaymentStatus(t *testing.T) {
	tests := []struct {
		name        string
		current     PaymentStatus
		event       PaymentEvent
		want        PaymentStatus
		wantChanged bool
		wantErr     bool
	}{
		{"pending succeeds", PaymentPending, EventPaymentSucceeded, PaymentSuccessful, true, false},
		{"pending fails", PaymentPending, EventPaymentFailed, PaymentFailed, true, false},
		{"success replay", PaymentSuccessful, EventPaymentSucceeded, PaymentSuccessful, false, false},
		{"failure replay", PaymentFailed, EventPaymentFailed, PaymentFailed, false, false},
		{"success then failure", PaymentSuccessful, EventPaymentFailed, PaymentSuccessful, false, true},
		{"failure then success", PaymentFailed, EventPaymentSucceeded, PaymentFailed, false, true},
		{"unknown status", PaymentStatus("Refunded"), EventPaymentSucceeded, PaymentStatus("Refunded"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := NextPaymentStatus(tt.current, tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || changed != tt.wantChanged {
				t.Fatalf("NextPaymentStatus(%s, %s) = %s, %v; want %s, %v", tt.current, tt.event, got, changed, tt.want, tt.wantChanged)
			}
		})
	}
}

func TestParsePaymentEvent(t *testing.T) {
	for _, raw := range []string{"successful", " SUCCESS ", "completed"} {
		if ev, err := ParsePaymentEvent(raw); err != nil || ev != EventPaymentSucceeded {
			t.Fatalf("ParsePaymentEvent(%q) = %v, %v", raw, ev, err)
		}
	}
	if ev, err := ParsePaymentEvent("failed"); err != nil || ev != EventPaymentFailed {
		t.Fatalf("ParsePaymentEvent(failed) = %v, %v", ev, err)
	}
	if _, err := ParsePaymentEvent("pending"); err == nil {
		t.Fatal("expected error for a non-final gateway status")
	}
}
