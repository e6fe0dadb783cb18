package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
	AggregateDealer  OutboxAggregateType = "dealer"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregateDealer,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType identifies the payload carried by an outbox row.
type OutboxEventType string

const (
	EventOrderCreated            OutboxEventType = "order_created"
	EventOrderCanceled           OutboxEventType = "order_canceled"
	EventRefundRequested         OutboxEventType = "refund_requested"
	EventShippingStatusUpdated   OutboxEventType = "shipping_status_updated"
	EventPaymentSucceeded        OutboxEventType = "payment_succeeded"
	EventPaymentFailed           OutboxEventType = "payment_failed"
	EventDealerReputationChanged OutboxEventType = "dealer_reputation_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderCanceled,
	EventRefundRequested,
	EventShippingStatusUpdated,
	EventPaymentSucceeded,
	EventPaymentFailed,
	EventDealerReputationChanged,
}

// IsValid reports whether the value is a known outbox event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
