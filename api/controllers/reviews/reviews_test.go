package reviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/internal/reputation"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

type stubReputation struct {
	created bool
	err     error
	input   reputation.ReviewInput
	params  pagination.Params
}

func (s *stubReputation) AddReview(_ context.Context, input reputation.ReviewInput) (*reputation.ReviewResult, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &reputation.ReviewResult{
		Review:  reputation.ReviewView{DealerID: input.DealerID, Rating: input.Rating},
		Summary: reputation.Summary{DealerID: input.DealerID, AverageRating: decimal.RequireFromString("4.50"), ReviewCount: 2, ReputationTier: enums.ReputationTierBronze},
		Created: s.created,
	}, nil
}

func (s *stubReputation) GetDealerReviews(_ context.Context, _ uuid.UUID, params pagination.Params) (*types.Page[reputation.ReviewView], error) {
	s.params = params
	return &types.Page[reputation.ReviewView]{Items: []reputation.ReviewView{}}, s.err
}

func (s *stubReputation) GetDealerSummary(_ context.Context, dealerID uuid.UUID) (*reputation.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &reputation.Summary{DealerID: dealerID, AverageRating: decimal.RequireFromString("4.67"), ReviewCount: 3, ReputationTier: enums.ReputationTierBronze}, nil
}

func newRouter(svc reputation.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/dealers/{dealerId}/reviews", Create(svc, nil))
	r.Get("/dealers/{dealerId}/reviews", List(svc, nil))
	r.Get("/dealers/{dealerId}/reputation", Summary(svc, nil))
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), enums.ActorRoleBuyer, nil))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestCreateStatusReflectsUpsert(t *testing.T) {
	dealerID := uuid.New()
	svc := &stubReputation{created: true}
	resp := do(newRouter(svc), http.MethodPost, "/dealers/"+dealerID.String()+"/reviews", `{"rating":5,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, dealerID, svc.input.DealerID)
	require.Equal(t, 5, svc.input.Rating)
	require.Contains(t, resp.Body.String(), `"review_count":2`)

	svc.created = false
	resp = do(newRouter(svc), http.MethodPost, "/dealers/"+dealerID.String()+"/reviews", `{"rating":4}`)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCreateRejectsRatingOutOfRange(t *testing.T) {
	for _, body := range []string{`{"rating":0}`, `{"rating":6}`, `{"comment":"no rating"}`} {
		resp := do(newRouter(&stubReputation{}), http.MethodPost, "/dealers/"+uuid.NewString()+"/reviews", body)
		require.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestCreateSelfReviewForbidden(t *testing.T) {
	svc := &stubReputation{err: pkgerrors.New(pkgerrors.CodeForbidden, "dealers cannot review themselves")}
	resp := do(newRouter(svc), http.MethodPost, "/dealers/"+uuid.NewString()+"/reviews", `{"rating":5}`)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestSummaryAndList(t *testing.T) {
	svc := &stubReputation{}
	resp := do(newRouter(svc), http.MethodGet, "/dealers/"+uuid.NewString()+"/reputation", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"average_rating":"4.67"`)
	require.Contains(t, resp.Body.String(), `"reputation_tier":"bronze"`)

	resp = do(newRouter(svc), http.MethodGet, "/dealers/"+uuid.NewString()+"/reviews?limit=5&cursor=abc", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.params)

	resp = do(newRouter(&stubReputation{err: pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")}), http.MethodGet, "/dealers/"+uuid.NewString()+"/reputation", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}
