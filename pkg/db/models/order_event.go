package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// OrderEvent is an append-only audit row for an order status change.
type OrderEvent struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	EventType          enums.OrderEventType  `gorm:"column:event_type;type:text;not null"`
	ActorID            *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	ActorRole          enums.ActorRole       `gorm:"column:actor_role;type:text;not null"`
	FromStatus         *enums.OrderStatus    `gorm:"column:from_status;type:text"`
	ToStatus           *enums.OrderStatus    `gorm:"column:to_status;type:text"`
	FromShippingStatus *enums.ShippingStatus `gorm:"column:from_shipping_status;type:text"`
	ToShippingStatus   *enums.ShippingStatus `gorm:"column:to_shipping_status;type:text"`
	TrackingNumber     *string               `gorm:"column:tracking_number"`
	Note               *string               `gorm:"column:note"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (e *OrderEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
