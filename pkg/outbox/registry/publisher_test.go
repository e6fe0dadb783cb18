package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveRefundGoesToPaymentsTopic(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventRefundRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: mustEnvelope(t, payloads.RefundRequestedEvent{
			OrderID:     orderID,
			OrderNumber: "PD-20261015-ABC123",
			PaymentID:   uuid.New(),
			AmountCents: 5135,
			Currency:    "USD",
			Reason:      "changed mind",
		}),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	require.Equal(t, "payments-topic", resolved.Descriptor.Topic)

	payload, ok := resolved.Payload.(*payloads.RefundRequestedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	require.Equal(t, int64(5135), payload.AmountCents)
	require.NotEmpty(t, resolved.Envelope.EventID)
	require.False(t, resolved.Envelope.OccurredAt.IsZero())
}

func TestEventRegistryResolveOrderCreated(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloads.OrderCreatedEvent{OrderNumber: "PD-1", TotalCents: 100}),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	require.Equal(t, "orders-topic", resolved.Descriptor.Topic)
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventPaymentSucceeded,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloads.PaymentStatusEvent{Status: "succeeded"}),
	}

	_, err := reg.Resolve(event)
	var nonRetry NonRetryableError
	require.True(t, errors.As(err, &nonRetry), "expected non-retryable error, got %v", err)
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     "mystery",
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, map[string]string{"a": "b"}),
	})
	var nonRetry NonRetryableError
	require.True(t, errors.As(err, &nonRetry))
}

func TestEventRegistryResolveMissingPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, nil),
	})
	var nonRetry NonRetryableError
	require.True(t, errors.As(err, &nonRetry))
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.Error(t, err)
}

func TestEventRegistryTopicsAreDistinct(t *testing.T) {
	reg := newTestEventRegistry(t)
	require.ElementsMatch(t, []string{"orders-topic", "payments-topic", "dealers-topic"}, reg.Topics())
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OrdersTopic:   "orders-topic",
		PaymentsTopic: "payments-topic",
		DealersTopic:  "dealers-topic",
	})
	require.NoError(t, err)
	return reg
}

func mustEnvelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	out, err := json.Marshal(envelope)
	require.NoError(t, err)
	return out
}
