package reputation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

const (
	reviewUniqueIndex = "ux_dealer_reviews_dealer_user"
	maxCommentLength  = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records dealer reviews and keeps each dealer's rating summary in
// step with them.
type Service interface {
	AddReview(ctx context.Context, input ReviewInput) (*ReviewResult, error)
	GetDealerReviews(ctx context.Context, dealerID uuid.UUID, params pagination.Params) (*types.Page[ReviewView], error)
	GetDealerSummary(ctx context.Context, dealerID uuid.UUID) (*Summary, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
}

// NewService builds the reputation service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reputation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

// AddReview upserts the user's review and recomputes the dealer summary in
// the same transaction, so the new tier is visible as soon as it returns.
func (s *service) AddReview(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if input.DealerID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id and user id are required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]int{"rating": input.Rating})
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if utf8.RuneCountInString(input.Comment) > maxCommentLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "comment must be at most %d characters", maxCommentLength)
	}

	var result *ReviewResult
	for attempt := 0; attempt < 2; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			r, err := s.addReviewTx(ctx, tx, input)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err == nil {
			ctx = s.logg.WithDealerID(ctx, input.DealerID.String())
			s.logg.Info(ctx, fmt.Sprintf("review recorded; dealer tier %s", result.Summary.ReputationTier))
			return result, nil
		}
		// Two first reviews from the same user raced; the retry updates.
		if attempt == 0 && isDuplicateReview(err) {
			continue
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record review")
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "review was modified concurrently; retry")
}

func isDuplicateReview(err error) bool {
	return db.IsUniqueViolation(err, reviewUniqueIndex) || db.IsUniqueViolation(err, "dealer_reviews.dealer_id")
}

func (s *service) addReviewTx(ctx context.Context, tx *gorm.DB, input ReviewInput) (*ReviewResult, error) {
	repo := s.repo.WithTx(tx)
	dealer, err := loadDealer(ctx, repo, input.DealerID)
	if err != nil {
		return nil, err
	}
	if dealer.UserID == input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "dealers cannot review themselves")
	}
	if err := repo.TouchDealer(ctx, dealer.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock dealer")
	}

	var comment *string
	if input.Comment != "" {
		comment = &input.Comment
	}
	review, err := repo.FindReview(ctx, dealer.ID, input.UserID)
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = &models.DealerReview{DealerID: dealer.ID, UserID: input.UserID, Rating: input.Rating, Comment: comment}
		if err := repo.CreateReview(ctx, review); err != nil {
			return nil, err
		}
		created = true
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	default:
		review.Rating = input.Rating
		review.Comment = comment
		if err := repo.UpdateReview(ctx, review); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
	}

	summary, err := s.recompute(ctx, tx, repo, dealer)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Review: newReviewView(review), Summary: summary, Created: created}, nil
}

func (s *service) recompute(ctx context.Context, tx *gorm.DB, repo Repository, dealer *models.Dealer) (Summary, error) {
	count, sum, err := repo.Aggregate(ctx, dealer.ID)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate reviews")
	}
	average := Average(sum, count)
	tier := TierFor(sum, count)
	if err := repo.SaveSummary(ctx, dealer.ID, average, int(count), tier); err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save dealer summary")
	}

	prevTier := dealer.ReputationTier
	dealer.AverageRating, dealer.ReviewCount, dealer.ReputationTier = average, int(count), tier
	if prevTier != tier {
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDealerReputationChanged,
			AggregateType: enums.AggregateDealer,
			AggregateID:   dealer.ID,
			Data: payloads.DealerReputationChangedEvent{
				DealerID:      dealer.ID,
				AverageRating: average.StringFixed(2),
				ReviewCount:   int(count),
				PrevTier:      string(prevTier),
				Tier:          string(tier),
			},
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			return Summary{}, err
		}
	}
	return newSummary(dealer), nil
}

func (s *service) GetDealerReviews(ctx context.Context, dealerID uuid.UUID, params pagination.Params) (*types.Page[ReviewView], error) {
	if _, err := loadDealer(ctx, s.repo, dealerID); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListReviews(ctx, dealerID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	page := &types.Page[ReviewView]{Items: make([]ReviewView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Items = append(page.Items, newReviewView(&rows[i]))
	}
	return page, nil
}

func (s *service) GetDealerSummary(ctx context.Context, dealerID uuid.UUID) (*Summary, error) {
	dealer, err := loadDealer(ctx, s.repo, dealerID)
	if err != nil {
		return nil, err
	}
	summary := newSummary(dealer)
	return &summary, nil
}

func loadDealer(ctx context.Context, repo Repository, dealerID uuid.UUID) (*models.Dealer, error) {
	dealer, err := repo.FindDealer(ctx, dealerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dealer")
	}
	return dealer, nil
}
