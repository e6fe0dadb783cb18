package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the dealer catalogue entry. Cart and order logic only read it,
// apart from the guarded stock_quantity updates in internal/inventory.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DealerID       uuid.UUID `gorm:"column:dealer_id;type:uuid;not null;index"`
	SKU            string    `gorm:"column:sku;not null"`
	Name           string    `gorm:"column:name;not null"`
	PriceCents     int64     `gorm:"column:price_cents;not null"`
	SalePriceCents *int64    `gorm:"column:sale_price_cents"`
	StockQuantity  int       `gorm:"column:stock_quantity;not null;check:stock_quantity >= 0"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// EffectivePriceCents returns the sale price when one is set and lower than
// the list price.
func (p Product) EffectivePriceCents() int64 {
	if p.SalePriceCents != nil && *p.SalePriceCents >= 0 && *p.SalePriceCents < p.PriceCents {
		return *p.SalePriceCents
	}
	return p.PriceCents
}
