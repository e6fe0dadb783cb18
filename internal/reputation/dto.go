package reputation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// ReviewInput is a buyer's rating of a dealer. Resubmitting replaces the
// buyer's earlier review of the same dealer.
type ReviewInput struct {
	DealerID uuid.UUID
	UserID   uuid.UUID
	Rating   int
	Comment  string
}

// Summary is the materialised rating a dealer shows to buyers.
type Summary struct {
	DealerID       uuid.UUID            `json:"dealer_id"`
	AverageRating  decimal.Decimal      `json:"average_rating"`
	ReviewCount    int                  `json:"review_count"`
	ReputationTier enums.ReputationTier `json:"reputation_tier"`
}

type ReviewView struct {
	ID        uuid.UUID `json:"id"`
	DealerID  uuid.UUID `json:"dealer_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewResult pairs the stored review with the recomputed summary.
type ReviewResult struct {
	Review  ReviewView `json:"review"`
	Summary Summary    `json:"summary"`
	Created bool       `json:"created"`
}

func newSummary(d *models.Dealer) Summary {
	return Summary{
		DealerID:       d.ID,
		AverageRating:  d.AverageRating,
		ReviewCount:    d.ReviewCount,
		ReputationTier: d.ReputationTier,
	}
}

func newReviewView(r *models.DealerReview) ReviewView {
	return ReviewView{
		ID:        r.ID,
		DealerID:  r.DealerID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
