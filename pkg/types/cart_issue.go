package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// CartIssue describes a cart line that can no longer be checked out as-is.
type CartIssue struct {
	CartItemID        uuid.UUID           `json:"cart_item_id"`
	ProductID         uuid.UUID           `json:"product_id"`
	Type              enums.CartIssueType `json:"type"`
	RequestedQuantity int                 `json:"requested_quantity"`
	AvailableQuantity int                 `json:"available_quantity"`
	Message           string              `json:"message"`
}
