package payloads

import (
	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted once the order, its items and the stock
// decrement have committed.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID        `json:"orderId"`
	OrderNumber string           `json:"orderNumber"`
	BuyerID     uuid.UUID        `json:"buyerId"`
	TotalCents  int64            `json:"totalCents"`
	Currency    string           `json:"currency"`
	Dealers     []DealerSubtotal `json:"dealers"`
}

// DealerSubtotal is one dealer's share of an order.
type DealerSubtotal struct {
	DealerID      uuid.UUID `json:"dealerId"`
	ItemCount     int       `json:"itemCount"`
	SubtotalCents int64     `json:"subtotalCents"`
}

type OrderCanceledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	BuyerID     uuid.UUID `json:"buyerId"`
	PrevStatus  string    `json:"prevStatus"`
	Reason      string    `json:"reason"`
}

// RefundRequestedEvent asks the payments collaborator to return funds for a
// canceled order that had already been paid.
type RefundRequestedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	PaymentID     uuid.UUID `json:"paymentId"`
	TransactionID string    `json:"transactionId,omitempty"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	Reason        string    `json:"reason"`
}

type ShippingStatusUpdatedEvent struct {
	OrderID            uuid.UUID `json:"orderId"`
	OrderNumber        string    `json:"orderNumber"`
	DealerID           uuid.UUID `json:"dealerId"`
	PrevShippingStatus string    `json:"prevShippingStatus"`
	ShippingStatus     string    `json:"shippingStatus"`
	OrderStatus        string    `json:"orderStatus"`
	TrackingNumber     *string   `json:"trackingNumber,omitempty"`
}

// PaymentStatusEvent covers both payment_succeeded and payment_failed.
type PaymentStatusEvent struct {
	PaymentID     uuid.UUID `json:"paymentId"`
	OrderID       uuid.UUID `json:"orderId"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	TransactionID *string   `json:"transactionId,omitempty"`
	ErrorMessage  *string   `json:"errorMessage,omitempty"`
}

type DealerReputationChangedEvent struct {
	DealerID      uuid.UUID `json:"dealerId"`
	AverageRating string    `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	PrevTier      string    `json:"prevTier"`
	Tier          string    `json:"tier"`
}
