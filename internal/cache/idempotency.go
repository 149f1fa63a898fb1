// Package cache holds the short-lived keys used for request replay
// protection.
package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// idem:order:create:{user_id}:{idempotency_key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	pendingMarker = "pending"
)

var TTLIdempotency = 24 * time.Hour

// Reservation is the outcome of reserving an idempotency key.
type Reservation struct {
	// Acquired is true when the caller owns the key and must Complete or
	// Release it.
	Acquired bool
	// InFlight is true when another request holds the key and has not
	// finished yet.
	InFlight bool
	// Value is the stored result of a finished request.
	Value string
}

type Idempotency interface {
	Reserve(ctx context.Context, key string) (Reservation, error)
	Complete(ctx context.Context, key, value string) error
	Release(ctx context.Context, key string) error
}

func OrderCreateKey(userID, idemKey string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, userID, idemKey)
}

func reservationFor(stored string) Reservation {
	if stored == pendingMarker {
		return Reservation{InFlight: true}
	}
	return Reservation{Value: stored}
}
