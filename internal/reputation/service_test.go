package reputation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/dbtest"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), logger.Nop()), logger.Nop())
	require.NoError(t, err)
	return svc, conn
}

func seedDealer(t *testing.T, conn *gorm.DB) models.Dealer {
	t.Helper()
	dealer := models.Dealer{UserID: uuid.New(), Name: "Northside Salvage"}
	require.NoError(t, conn.Create(&dealer).Error)
	return dealer
}

func reputationEvents(t *testing.T, conn *gorm.DB) []payloads.DealerReputationChangedEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventDealerReputationChanged).Order("created_at ASC").Find(&rows).Error)
	out := make([]payloads.DealerReputationChangedEvent, 0, len(rows))
	for _, row := range rows {
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		var payload payloads.DealerReputationChangedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		out = append(out, payload)
	}
	return out
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestAddReviewFirstReviewStaysBronze(t *testing.T) {
	svc, conn := newTestService(t)
	dealer := seedDealer(t, conn)

	res, err := svc.AddReview(context.Background(), ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 5, Comment: "  fast shipping  "})
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, 1, res.Summary.ReviewCount)
	requireDecimal(t, "5", res.Summary.AverageRating)
	require.Equal(t, enums.ReputationTierBronze, res.Summary.ReputationTier)
	require.NotNil(t, res.Review.Comment)
	require.Equal(t, "fast shipping", *res.Review.Comment)
	require.Empty(t, reputationEvents(t, conn))

	summary, err := svc.GetDealerSummary(context.Background(), dealer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ReviewCount)
	requireDecimal(t, "5", summary.AverageRating)
}

func TestAddReviewResubmissionReplacesEarlierReview(t *testing.T) {
	svc, conn := newTestService(t)
	dealer := seedDealer(t, conn)
	buyer := uuid.New()

	first, err := svc.AddReview(context.Background(), ReviewInput{DealerID: dealer.ID, UserID: buyer, Rating: 2})
	require.NoError(t, err)
	second, err := svc.AddReview(context.Background(), ReviewInput{DealerID: dealer.ID, UserID: buyer, Rating: 4, Comment: "sorted it out"})
	require.NoError(t, err)

	require.False(t, second.Created)
	require.Equal(t, first.Review.ID, second.Review.ID)
	require.Equal(t, 1, second.Summary.ReviewCount)
	requireDecimal(t, "4", second.Summary.AverageRating)

	var count int64
	require.NoError(t, conn.Model(&models.DealerReview{}).Where("dealer_id = ?", dealer.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAddReviewTierChangesEmitEvents(t *testing.T) {
	svc, conn := newTestService(t)
	dealer := seedDealer(t, conn)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res, err := svc.AddReview(ctx, ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 5})
		require.NoError(t, err)
		require.Equal(t, enums.ReputationTierBronze, res.Summary.ReputationTier)
	}
	require.Empty(t, reputationEvents(t, conn))

	res, err := svc.AddReview(ctx, ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 5})
	require.NoError(t, err)
	require.Equal(t, enums.ReputationTierGold, res.Summary.ReputationTier)

	// 26 / 6 = 4.33
	res, err = svc.AddReview(ctx, ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 1})
	require.NoError(t, err)
	require.Equal(t, enums.ReputationTierSilver, res.Summary.ReputationTier)
	requireDecimal(t, "4.33", res.Summary.AverageRating)

	events := reputationEvents(t, conn)
	require.Len(t, events, 2)
	require.Equal(t, "bronze", events[0].PrevTier)
	require.Equal(t, "gold", events[0].Tier)
	require.Equal(t, "5.00", events[0].AverageRating)
	require.Equal(t, 5, events[0].ReviewCount)
	require.Equal(t, "gold", events[1].PrevTier)
	require.Equal(t, "silver", events[1].Tier)
	require.Equal(t, "4.33", events[1].AverageRating)

	var stored models.Dealer
	require.NoError(t, conn.First(&stored, "id = ?", dealer.ID).Error)
	require.Equal(t, enums.ReputationTierSilver, stored.ReputationTier)
	require.Equal(t, 6, stored.ReviewCount)
	requireDecimal(t, "4.33", stored.AverageRating)
}

func TestAddReviewRejections(t *testing.T) {
	svc, conn := newTestService(t)
	dealer := seedDealer(t, conn)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ReviewInput
		code  pkgerrors.Code
	}{
		{"rating too low", ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 0}, pkgerrors.CodeValidation},
		{"rating too high", ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 6}, pkgerrors.CodeValidation},
		{"missing user", ReviewInput{DealerID: dealer.ID, Rating: 3}, pkgerrors.CodeValidation},
		{"self review", ReviewInput{DealerID: dealer.ID, UserID: dealer.UserID, Rating: 5}, pkgerrors.CodeForbidden},
		{"unknown dealer", ReviewInput{DealerID: uuid.New(), UserID: uuid.New(), Rating: 5}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddReview(ctx, tc.input)
			require.Error(t, err)
			require.Equal(t, tc.code, pkgerrors.CodeOf(err))
		})
	}

	var count int64
	require.NoError(t, conn.Model(&models.DealerReview{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetDealerReviewsPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	dealer := seedDealer(t, conn)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.AddReview(ctx, ReviewInput{DealerID: dealer.ID, UserID: uuid.New(), Rating: 4})
		require.NoError(t, err)
	}

	first, err := svc.GetDealerReviews(ctx, dealer.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.GetDealerReviews(ctx, dealer.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)

	_, err = svc.GetDealerReviews(ctx, uuid.New(), pagination.Params{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetDealerReviews(ctx, dealer.ID, pagination.Params{Cursor: "not-a-cursor"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
