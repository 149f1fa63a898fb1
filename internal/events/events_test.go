package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeRoundTripsPayload(t *testing.T) {
	env, err := NewEnvelope("storefront-api", EventOrderCreated, "o-1", OrderCreatedPayload{
		OrderID: "o-1",
		UserID:  "u-1",
		Items:   []ItemPrice{{ProductID: "p-1", Qty: 2, UnitPrice: 10}},
		Total:   20,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "o-1", env.CorrelationID)

	payload, err := UnwrapPayload[OrderCreatedPayload](env)
	require.NoError(t, err)
	assert.Equal(t, 20.0, payload.Total)
	assert.Len(t, payload.Items, 1)
}

func TestKafkaPublisherRejectsAfterClose(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "test", 1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), Envelope{EventType: EventOrderCreated})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
