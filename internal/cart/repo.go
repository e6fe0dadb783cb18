package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// Repository persists buyer cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, buyerID, itemID uuid.UUID) (*models.CartItem, error)
	FindByProduct(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartItem, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	Increment(ctx context.Context, buyerID, itemID uuid.UUID, delta int, options types.SelectedOptions) error
	Delete(ctx context.Context, buyerID, itemID uuid.UUID) error
	DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error)
	DeleteAtQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the cart repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, buyerID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", itemID, buyerID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByProduct(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND buyer_id = ?", item.ID, item.BuyerID).
		Updates(map[string]any{
			"quantity":         item.Quantity,
			"selected_options": item.SelectedOptions,
		}).Error
}

// Increment adds delta to the stored quantity in SQL so concurrent merges
// into the same line both land.
func (r *repository) Increment(ctx context.Context, buyerID, itemID uuid.UUID, delta int, options types.SelectedOptions) error {
	updates := map[string]any{"quantity": gorm.Expr("quantity + ?", delta)}
	if options != nil {
		updates["selected_options"] = options
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND buyer_id = ?", itemID, buyerID).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, buyerID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", itemID, buyerID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteAtQuantity removes the line only while it still holds quantity.
func (r *repository) DeleteAtQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ? AND quantity = ?", itemID, buyerID, quantity).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
