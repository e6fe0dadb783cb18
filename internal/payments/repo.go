package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// Repository persists payment methods and payment attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMethod(ctx context.Context, method *models.PaymentMethod) error
	ClearDefaultMethods(ctx context.Context, userID uuid.UUID) error
	CountMethods(ctx context.Context, userID uuid.UUID) (int64, error)
	ListMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	FindMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error)

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (int64, error)
	CreateOrderEvent(ctx context.Context, event *models.OrderEvent) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	FinishPayment(ctx context.Context, payment *models.Payment) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the payments repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMethod(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) ClearDefaultMethods(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Updates(map[string]any{"is_default": false, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) CountMethods(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&methods).Error
	return methods, err
}

func (r *repository) FindMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", methodID, userID).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid flips an unpaid, non-canceled order to paid and confirms it if
// it was still pending. Zero rows means the order moved on concurrently.
func (r *repository) MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND status <> ?", orderID, enums.OrderPaymentStatusUnpaid, enums.OrderStatusCanceled).
		Updates(map[string]any{
			"payment_status": enums.OrderPaymentStatusPaid,
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				enums.OrderStatusPending, enums.OrderStatusConfirmed),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FinishPayment moves a pending attempt to its terminal state.
func (r *repository) FinishPayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, enums.PaymentAttemptPending).
		Updates(map[string]any{
			"status":         payment.Status,
			"transaction_id": payment.TransactionID,
			"error_message":  payment.ErrorMessage,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
