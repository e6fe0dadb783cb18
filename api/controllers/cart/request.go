package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

type addItemRequest struct {
	ProductID       uuid.UUID             `json:"product_id" validate:"required"`
	Quantity        int                   `json:"quantity" validate:"required,min=1,max=999"`
	SelectedOptions types.SelectedOptions `json:"selected_options" validate:"omitempty,max=10,dive,keys,max=64,endkeys,max=128"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}
