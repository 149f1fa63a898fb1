package models

import (
	"errors"
	"fmt"
	"strings"
)

// PaymentEvent is the outcome reported by the gateway for a transaction.
type PaymentEvent string

const (
	EventPaymentSucceeded PaymentEvent = "succeeded"
	EventPaymentFailed    PaymentEvent = "failed"
)

var ErrInvalidTransition = errors.New("invalid payment transition")

// ParsePaymentEvent maps gateway status words onto events.
func ParsePaymentEvent(raw string) (PaymentEvent, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "successful", "success", "succeeded", "completed":
		return EventPaymentSucceeded, nil
	case "failed", "failure", "error", "rejected":
		return EventPaymentFailed, nil
	}
	return "", fmt.Errorf("unknown payment outcome %q", raw)
}

var paymentTransitions = map[PaymentStatus]map[PaymentEvent]PaymentStatus{
	PaymentPending: {
		EventPaymentSucceeded: PaymentSuccessful,
		EventPaymentFailed:    PaymentFailed,
	},
	PaymentSuccessful: {
		EventPaymentSucceeded: PaymentSuccessful,
	},
	PaymentFailed: {
		EventPaymentFailed: PaymentFailed,
	},
}

// NextPaymentStatus returns the status an event moves a payment to and
// whether that is an actual change. Replays of the event that produced a
// terminal status are no-ops; everything else is ErrInvalidTransition.
func NextPaymentStatus(current PaymentStatus, event PaymentEvent) (PaymentStatus, bool, error) {
	next, ok := paymentTransitions[current][event]
	if !ok {
		return current, false, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, current)
	}
	return next, next != current, nil
}
