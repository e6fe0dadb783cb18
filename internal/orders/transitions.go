package orders

import (
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
)

type shippingTransition struct {
	OrderStatus enums.OrderStatus
	Changed     bool
}

// planShipping validates a dealer's shipping update. Shipping only moves
// forward; repeating the current status is a no-op. Reaching shipped or
// delivered carries the order status along with it.
func planShipping(order *models.Order, target enums.ShippingStatus) (shippingTransition, error) {
	if !target.IsValid() {
		return shippingTransition{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown shipping status %q", target)
	}
	if order.Status == enums.OrderStatusCanceled {
		return shippingTransition{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order is canceled")
	}

	current := order.ShippingStatus
	if target == current {
		return shippingTransition{OrderStatus: order.Status}, nil
	}
	if target.Rank() < current.Rank() {
		return shippingTransition{}, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"shipping status cannot move from %s back to %s", current, target).
			WithDetails(map[string]string{"from": string(current), "to": string(target)})
	}

	status := order.Status
	switch target {
	case enums.ShippingStatusShipped:
		if status == enums.OrderStatusPending || status == enums.OrderStatusConfirmed {
			status = enums.OrderStatusShipped
		}
	case enums.ShippingStatusDelivered:
		if status == enums.OrderStatusPending || status == enums.OrderStatusConfirmed || status == enums.OrderStatusShipped {
			status = enums.OrderStatusDelivered
		}
	}
	return shippingTransition{OrderStatus: status, Changed: true}, nil
}

// checkCancelable reports whether a buyer may cancel the order now.
func checkCancelable(order *models.Order) error {
	if order.Status.IsCancelable() {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeNotCancelable, "order cannot be canceled once %s", order.Status).
		WithDetails(map[string]string{"status": string(order.Status)})
}
