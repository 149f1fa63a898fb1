// Package services holds the storefront use cases. Services speak in
// *apperr.Error for anything a client can act on and wrap everything else.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// eventSink stamps envelopes with the producer name and never fails the
// caller; a lost event is logged.
type eventSink struct {
	pub      events.Publisher
	producer string
}

func (s eventSink) emit(ctx context.Context, eventType, correlationID string, payload any) {
	if s.pub == nil {
		return
	}
	env, err := events.NewEnvelope(s.producer, eventType, correlationID, payload)
	if err != nil {
		log.Println("[EVENTS] [ERROR] build envelope failed:", err)
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.pub.Publish(pubCtx, env); err != nil {
		log.Printf("[EVENTS] [ERROR] publish %s for %s failed: %v", eventType, correlationID, err)
	}
}

// lookupErr turns store.ErrNotFound into a NotFound error naming what was
// looked up and wraps anything else.
func lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func requireText(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperr.Validationf("%s is required", field)
	}
	return trimmed, nil
}

func orderLinePayload(lines []models.OrderLine) []events.ItemPrice {
	items := make([]events.ItemPrice, 0, len(lines))
	for _, line := range lines {
		items = append(items, events.ItemPrice{
			ProductID: line.ProductID.Hex(),
			Qty:       line.Count,
			UnitPrice: line.UnitPrice,
		})
	}
	return items
}
