package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/internal/payments"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// OrderFilters narrow buyer and dealer order lists.
type OrderFilters struct {
	Status         *enums.OrderStatus
	ShippingStatus *enums.ShippingStatus
	PaymentStatus  *enums.OrderPaymentStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	Query          string
}

// CreateOrderInput is the buyer's checkout request.
type CreateOrderInput struct {
	ShippingAddress types.Address
	ShippingMethod  enums.ShippingMethod
	PaymentMethodID uuid.UUID
	Notes           string
	// PayNow submits the order total to the gateway right after the order
	// commits.
	PayNow bool
}

// CreateOrderResult carries the committed order and, when payment was
// requested, the attempt. PaymentError is set when the attempt failed; the
// order stays pending and unpaid in that case.
type CreateOrderResult struct {
	Order        *OrderDetail          `json:"order"`
	Payment      *payments.PaymentView `json:"payment,omitempty"`
	PaymentError error                 `json:"-"`
}

// Viewer identifies who is reading an order.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// BuyerViewer is the viewer for a buyer reading their own orders.
func BuyerViewer(userID uuid.UUID) Viewer {
	return Viewer{UserID: userID, Role: enums.ActorRoleBuyer}
}

func (v Viewer) canSee(order *models.Order) bool {
	return v.Role == enums.ActorRoleAdmin || (v.UserID != uuid.Nil && order.BuyerID == v.UserID)
}

// ShippingUpdateInput is a dealer's fulfilment update.
type ShippingUpdateInput struct {
	OrderID        uuid.UUID
	DealerID       uuid.UUID
	ActorUserID    uuid.UUID
	Status         enums.ShippingStatus
	TrackingNumber *string
}

type ItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	DealerID       uuid.UUID `json:"dealer_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
}

// OrderDetail is the buyer's full view of an order.
type OrderDetail struct {
	ID                 uuid.UUID                `json:"id"`
	OrderNumber        string                   `json:"order_number"`
	BuyerID            uuid.UUID                `json:"buyer_id"`
	Status             enums.OrderStatus        `json:"status"`
	PaymentStatus      enums.OrderPaymentStatus `json:"payment_status"`
	ShippingStatus     enums.ShippingStatus     `json:"shipping_status"`
	ShippingMethod     enums.ShippingMethod     `json:"shipping_method"`
	ShippingAddress    types.Address            `json:"shipping_address"`
	PaymentMethodID    *uuid.UUID               `json:"payment_method_id,omitempty"`
	Currency           string                   `json:"currency"`
	SubtotalCents      int64                    `json:"subtotal_cents"`
	ShippingFeeCents   int64                    `json:"shipping_fee_cents"`
	TaxCents           int64                    `json:"tax_cents"`
	DiscountCents      int64                    `json:"discount_cents"`
	TotalCents         int64                    `json:"total_cents"`
	TrackingNumber     *string                  `json:"tracking_number,omitempty"`
	CancellationReason *string                  `json:"cancellation_reason,omitempty"`
	Notes              *string                  `json:"notes,omitempty"`
	CanceledAt         *time.Time               `json:"canceled_at,omitempty"`
	Items              []ItemView               `json:"items"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// OrderSummary is one row of the buyer's order list.
type OrderSummary struct {
	ID             uuid.UUID                `json:"id"`
	OrderNumber    string                   `json:"order_number"`
	Status         enums.OrderStatus        `json:"status"`
	PaymentStatus  enums.OrderPaymentStatus `json:"payment_status"`
	ShippingStatus enums.ShippingStatus     `json:"shipping_status"`
	Currency       string                   `json:"currency"`
	TotalCents     int64                    `json:"total_cents"`
	ItemCount      int                      `json:"item_count"`
	CreatedAt      time.Time                `json:"created_at"`
}

// DealerOrderView is an order projected onto a single dealer: only that
// dealer's lines and their subtotal, never the buyer's order totals.
type DealerOrderView struct {
	ID                  uuid.UUID                `json:"id"`
	OrderNumber         string                   `json:"order_number"`
	Status              enums.OrderStatus        `json:"status"`
	PaymentStatus       enums.OrderPaymentStatus `json:"payment_status"`
	ShippingStatus      enums.ShippingStatus     `json:"shipping_status"`
	ShippingMethod      enums.ShippingMethod     `json:"shipping_method"`
	ShippingAddress     types.Address            `json:"shipping_address"`
	TrackingNumber      *string                  `json:"tracking_number,omitempty"`
	Currency            string                   `json:"currency"`
	Items               []ItemView               `json:"items"`
	DealerSubtotalCents int64                    `json:"dealer_subtotal_cents"`
	CreatedAt           time.Time                `json:"created_at"`
}

type EventView struct {
	ID                 uuid.UUID             `json:"id"`
	EventType          enums.OrderEventType  `json:"event_type"`
	ActorID            *uuid.UUID            `json:"actor_id,omitempty"`
	ActorRole          enums.ActorRole       `json:"actor_role"`
	FromStatus         *enums.OrderStatus    `json:"from_status,omitempty"`
	ToStatus           *enums.OrderStatus    `json:"to_status,omitempty"`
	FromShippingStatus *enums.ShippingStatus `json:"from_shipping_status,omitempty"`
	ToShippingStatus   *enums.ShippingStatus `json:"to_shipping_status,omitempty"`
	TrackingNumber     *string               `json:"tracking_number,omitempty"`
	Note               *string               `json:"note,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

func newItemView(item models.OrderItem) ItemView {
	return ItemView{
		ID:             item.ID,
		ProductID:      item.ProductID,
		DealerID:       item.DealerID,
		ProductName:    item.ProductName,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		TotalCents:     item.TotalCents,
	}
}

func newOrderDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		BuyerID:            order.BuyerID,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		ShippingStatus:     order.ShippingStatus,
		ShippingMethod:     order.ShippingMethod,
		ShippingAddress:    order.ShippingAddress,
		PaymentMethodID:    order.PaymentMethodID,
		Currency:           order.Currency,
		SubtotalCents:      order.SubtotalCents,
		ShippingFeeCents:   order.ShippingFeeCents,
		TaxCents:           order.TaxCents,
		DiscountCents:      order.DiscountCents,
		TotalCents:         order.TotalCents,
		TrackingNumber:     order.TrackingNumber,
		CancellationReason: order.CancellationReason,
		Notes:              order.Notes,
		CanceledAt:         order.CanceledAt,
		Items:              make([]ItemView, 0, len(order.Items)),
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, newItemView(item))
	}
	return detail
}

func newOrderSummary(order models.Order) OrderSummary {
	summary := OrderSummary{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		ShippingStatus: order.ShippingStatus,
		Currency:       order.Currency,
		TotalCents:     order.TotalCents,
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		summary.ItemCount += item.Quantity
	}
	return summary
}

// newDealerOrderView keeps only dealerID's lines.
func newDealerOrderView(order *models.Order, dealerID uuid.UUID) *DealerOrderView {
	view := &DealerOrderView{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		ShippingStatus:  order.ShippingStatus,
		ShippingMethod:  order.ShippingMethod,
		ShippingAddress: order.ShippingAddress,
		TrackingNumber:  order.TrackingNumber,
		Currency:        order.Currency,
		Items:           []ItemView{},
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		if item.DealerID != dealerID {
			continue
		}
		view.Items = append(view.Items, newItemView(item))
		view.DealerSubtotalCents += item.TotalCents
	}
	return view
}

func newEventView(event models.OrderEvent) EventView {
	return EventView{
		ID:                 event.ID,
		EventType:          event.EventType,
		ActorID:            event.ActorID,
		ActorRole:          event.ActorRole,
		FromStatus:         event.FromStatus,
		ToStatus:           event.ToStatus,
		FromShippingStatus: event.FromShippingStatus,
		ToShippingStatus:   event.ToShippingStatus,
		TrackingNumber:     event.TrackingNumber,
		Note:               event.Note,
		CreatedAt:          event.CreatedAt,
	}
}
