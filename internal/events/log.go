package events

import (
	"context"
	"log"
)

// LogPublisher writes envelopes to the process log. It is used when no Kafka
// brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, env Envelope) error {
	log.Printf("[EVENTS] [INFO] %s correlation=%s payload=%s", env.EventType, env.CorrelationID, env.Payload)
	return nil
}

func (LogPublisher) Close() error { return nil }
