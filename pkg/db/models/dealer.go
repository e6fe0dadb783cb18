package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// Dealer holds the reputation summary materialised from dealer_reviews.
// AverageRating, ReviewCount and ReputationTier are only written by the
// reputation service.
type Dealer struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Name           string               `gorm:"column:name;not null"`
	AverageRating  decimal.Decimal      `gorm:"column:average_rating;type:numeric(3,2);not null"`
	ReviewCount    int                  `gorm:"column:review_count;not null"`
	ReputationTier enums.ReputationTier `gorm:"column:reputation_tier;type:text;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Dealer) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	if d.ReputationTier == "" {
		d.ReputationTier = enums.ReputationTierBronze
	}
	return nil
}

// DealerReview is unique per (dealer_id, user_id); resubmission updates it.
type DealerReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DealerID  uuid.UUID `gorm:"column:dealer_id;type:uuid;not null;uniqueIndex:ux_dealer_reviews_dealer_user,priority:1"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_dealer_reviews_dealer_user,priority:2"`
	Rating    int       `gorm:"column:rating;not null;check:rating BETWEEN 1 AND 5"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *DealerReview) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
