package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
)

// State is the status triple an order update is conditioned on.
type State struct {
	Status         enums.OrderStatus
	PaymentStatus  enums.OrderPaymentStatus
	ShippingStatus enums.ShippingStatus
}

func stateOf(order *models.Order) State {
	return State{
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		ShippingStatus: order.ShippingStatus,
	}
}

// Repository defines persistence operations for orders and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// UpdateIf applies updates only while the order is still in expected and
	// returns the number of rows changed.
	UpdateIf(ctx context.Context, orderID uuid.UUID, expected State, updates map[string]any) (int64, error)
	CountDealerItems(ctx context.Context, orderID, dealerID uuid.UUID) (int64, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error)
	ListDealerOrders(ctx context.Context, dealerID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error)
	CreateEvent(ctx context.Context, event *models.OrderEvent) error
	ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
	LatestSucceededPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
}
