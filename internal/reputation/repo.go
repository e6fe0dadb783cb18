package reputation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
)

// Repository persists dealer reviews and the dealer rating summary.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDealer(ctx context.Context, dealerID uuid.UUID) (*models.Dealer, error)
	// TouchDealer bumps updated_at, taking the dealer row lock so summary
	// recomputes for one dealer run one at a time.
	TouchDealer(ctx context.Context, dealerID uuid.UUID) error
	FindReview(ctx context.Context, dealerID, userID uuid.UUID) (*models.DealerReview, error)
	CreateReview(ctx context.Context, review *models.DealerReview) error
	UpdateReview(ctx context.Context, review *models.DealerReview) error
	Aggregate(ctx context.Context, dealerID uuid.UUID) (count int64, sum int64, err error)
	SaveSummary(ctx context.Context, dealerID uuid.UUID, average decimal.Decimal, count int, tier enums.ReputationTier) error
	ListReviews(ctx context.Context, dealerID uuid.UUID, params pagination.Params) ([]models.DealerReview, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the reputation repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDealer(ctx context.Context, dealerID uuid.UUID) (*models.Dealer, error) {
	var dealer models.Dealer
	if err := r.db.WithContext(ctx).Where("id = ?", dealerID).First(&dealer).Error; err != nil {
		return nil, err
	}
	return &dealer, nil
}

func (r *repository) TouchDealer(ctx context.Context, dealerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Dealer{}).
		Where("id = ?", dealerID).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindReview(ctx context.Context, dealerID, userID uuid.UUID) (*models.DealerReview, error) {
	var review models.DealerReview
	err := r.db.WithContext(ctx).
		Where("dealer_id = ? AND user_id = ?", dealerID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) CreateReview(ctx context.Context, review *models.DealerReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) UpdateReview(ctx context.Context, review *models.DealerReview) error {
	review.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.DealerReview{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": review.UpdatedAt,
		}).Error
}

func (r *repository) Aggregate(ctx context.Context, dealerID uuid.UUID) (int64, int64, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DealerReview{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("dealer_id = ?", dealerID).
		Scan(&row).Error
	return row.Count, row.Total, err
}

func (r *repository) SaveSummary(ctx context.Context, dealerID uuid.UUID, average decimal.Decimal, count int, tier enums.ReputationTier) error {
	return r.db.WithContext(ctx).
		Model(&models.Dealer{}).
		Where("id = ?", dealerID).
		Updates(map[string]any{
			"average_rating":  average,
			"review_count":    count,
			"reputation_tier": tier,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *repository) ListReviews(ctx context.Context, dealerID uuid.UUID, params pagination.Params) ([]models.DealerReview, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var rows []models.DealerReview
	query := r.db.WithContext(ctx).Model(&models.DealerReview{}).Where("dealer_id = ?", dealerID)
	if err := pagination.Apply(query, "", cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(r models.DealerReview) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return page, next, nil
}
