package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// Payment is one attempt to collect an order's amount. Rows are inserted as
// pending before the gateway is called.
type Payment struct {
	ID              uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	PaymentMethodID uuid.UUID                  `gorm:"column:payment_method_id;type:uuid;not null"`
	AmountCents     int64                      `gorm:"column:amount_cents;not null"`
	Currency        string                     `gorm:"column:currency;not null"`
	Provider        string                     `gorm:"column:provider;not null"`
	Status          enums.PaymentAttemptStatus `gorm:"column:status;type:text;not null"`
	TransactionID   *string                    `gorm:"column:transaction_id"`
	ErrorMessage    *string                    `gorm:"column:error_message"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PaymentMethod is a buyer's saved way to pay. At most one row per user has
// IsDefault set.
type PaymentMethod struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type         enums.PaymentMethodType `gorm:"column:type;type:text;not null"`
	Provider     string                  `gorm:"column:provider;not null"`
	MobileNumber *string                 `gorm:"column:mobile_number"`
	CardToken    *string                 `gorm:"column:card_token"`
	Label        *string                 `gorm:"column:label"`
	IsDefault    bool                    `gorm:"column:is_default;not null"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DestinationAccount is the account reference handed to the gateway.
func (p PaymentMethod) DestinationAccount() string {
	switch {
	case p.MobileNumber != nil:
		return *p.MobileNumber
	case p.CardToken != nil:
		return *p.CardToken
	default:
		return ""
	}
}
