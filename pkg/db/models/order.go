package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// Order is a buyer checkout. Items are frozen at creation; totals are stored
// in minor units.
type Order struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        string                   `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	BuyerID            uuid.UUID                `gorm:"column:buyer_id;type:uuid;not null;index:ix_orders_buyer_created,priority:1"`
	Status             enums.OrderStatus        `gorm:"column:status;type:text;not null"`
	PaymentStatus      enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null"`
	ShippingStatus     enums.ShippingStatus     `gorm:"column:shipping_status;type:text;not null"`
	ShippingAddress    types.Address            `gorm:"column:shipping_address;type:jsonb;not null"`
	ShippingMethod     enums.ShippingMethod     `gorm:"column:shipping_method;type:text;not null"`
	PaymentMethodID    *uuid.UUID               `gorm:"column:payment_method_id;type:uuid"`
	Currency           string                   `gorm:"column:currency;not null"`
	SubtotalCents      int64                    `gorm:"column:subtotal_cents;not null"`
	ShippingFeeCents   int64                    `gorm:"column:shipping_fee_cents;not null"`
	TaxCents           int64                    `gorm:"column:tax_cents;not null"`
	DiscountCents      int64                    `gorm:"column:discount_cents;not null"`
	TotalCents         int64                    `gorm:"column:total_cents;not null"`
	TrackingNumber     *string                  `gorm:"column:tracking_number"`
	CancellationReason *string                  `gorm:"column:cancellation_reason"`
	Notes              *string                  `gorm:"column:notes"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	Items              []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime;index:ix_orders_buyer_created,priority:2"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a frozen line of an order. TotalCents = Quantity * UnitPriceCents.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	DealerID       uuid.UUID `gorm:"column:dealer_id;type:uuid;not null;index"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
