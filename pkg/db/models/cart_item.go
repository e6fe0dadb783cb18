package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// CartItem is one buyer-selected product line. (buyer_id, product_id) is unique
// so re-adding a product merges into the existing row.
type CartItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:ux_cart_items_buyer_product,priority:1"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_buyer_product,priority:2"`
	DealerID        uuid.UUID             `gorm:"column:dealer_id;type:uuid;not null"`
	Quantity        int                   `gorm:"column:quantity;not null;check:quantity >= 1"`
	SelectedOptions types.SelectedOptions `gorm:"column:selected_options;type:jsonb"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
