package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// AddItemInput is the buyer's request to put a product in the cart.
type AddItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	SelectedOptions types.SelectedOptions
}

// Line is a cart item priced against the live product.
type Line struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	DealerID        uuid.UUID             `json:"dealer_id"`
	ProductName     string                `json:"product_name"`
	SKU             string                `json:"sku"`
	Quantity        int                   `json:"quantity"`
	PriceCents      int64                 `json:"price_cents"`
	SalePriceCents  *int64                `json:"sale_price_cents,omitempty"`
	UnitPriceCents  int64                 `json:"unit_price_cents"`
	ItemTotalCents  int64                 `json:"item_total_cents"`
	StockQuantity   int                   `json:"stock_quantity"`
	Available       bool                  `json:"available"`
	SelectedOptions types.SelectedOptions `json:"selected_options,omitempty"`
}

// DealerGroup is the slice of the cart one dealer will fulfil.
type DealerGroup struct {
	DealerID      uuid.UUID `json:"dealer_id"`
	Items         []Line    `json:"items"`
	SubtotalCents int64     `json:"subtotal_cents"`
}

// View is the buyer's cart with per-line and per-dealer totals.
type View struct {
	BuyerID       uuid.UUID     `json:"buyer_id"`
	Items         []Line        `json:"items"`
	ItemCount     int           `json:"item_count"`
	SubtotalCents int64         `json:"subtotal_cents"`
	DealerGroups  []DealerGroup `json:"dealer_groups"`
}

// IsEmpty reports whether the cart has no lines.
func (v *View) IsEmpty() bool {
	return v == nil || len(v.Items) == 0
}

// Validation is the result of rechecking every line against live stock.
type Validation struct {
	IsValid bool              `json:"is_valid"`
	Issues  []types.CartIssue `json:"issues"`
}
