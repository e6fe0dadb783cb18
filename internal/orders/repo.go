package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the orders repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateIf(ctx context.Context, orderID uuid.UUID, expected State, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ? AND shipping_status = ?",
			orderID, expected.Status, expected.PaymentStatus, expected.ShippingStatus).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) CountDealerItems(ctx context.Context, orderID, dealerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND dealer_id = ?", orderID, dealerID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("orders.buyer_id = ?", buyerID)
	return r.page(applyFilters(query, filters), params)
}

// ListDealerOrders returns orders containing at least one of dealerID's
// lines, with Items holding only those lines.
func (r *repository) ListDealerOrders(ctx context.Context, dealerID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("dealer_id = ?", dealerID).Order("created_at ASC").Order("id ASC")
		}).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.dealer_id = ?)", dealerID)
	return r.page(applyFilters(query, filters), params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var rows []models.Order
	if err := pagination.Apply(query, "orders", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func applyFilters(query *gorm.DB, filters OrderFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("orders.status = ?", *filters.Status)
	}
	if filters.ShippingStatus != nil {
		query = query.Where("orders.shipping_status = ?", *filters.ShippingStatus)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("orders.payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		query = query.Where("orders.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("orders.created_at < ?", *filters.DateTo)
	}
	if q := strings.ToUpper(strings.TrimSpace(filters.Query)); q != "" {
		query = query.Where("UPPER(orders.order_number) LIKE ?", "%"+q+"%")
	}
	return query
}

func (r *repository) CreateEvent(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	var rows []models.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) LatestSucceededPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentAttemptSucceeded).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
