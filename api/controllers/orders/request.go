package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/api/validators"
	internalorders "github.com/angelmondragon/partsdealer-backend/internal/orders"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

// Address rules are enforced by the service so the missing-field list is
// reported the same way for every caller.
type createOrderRequest struct {
	ShippingAddress types.Address `json:"shipping_address" validate:"-"`
	ShippingMethod  string        `json:"shipping_method" validate:"omitempty,oneof=standard express pickup"`
	PaymentMethodID uuid.UUID     `json:"payment_method_id" validate:"required"`
	Notes           string        `json:"notes" validate:"max=1000"`
	PayNow          bool          `json:"pay_now"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type shippingUpdateRequest struct {
	Status         string  `json:"status" validate:"required,oneof=pending processing shipped delivered"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=100"`
}

type createOrderResponse struct {
	Order        *internalorders.OrderDetail `json:"order"`
	Payment      any                         `json:"payment,omitempty"`
	PaymentError *types.APIError             `json:"payment_error,omitempty"`
}

func buildFilters(r *http.Request) (internalorders.OrderFilters, error) {
	query := r.URL.Query()
	var filters internalorders.OrderFilters

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("shipping_status")); raw != "" {
		status, err := enums.ParseShippingStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping_status filter")
		}
		filters.ShippingStatus = &status
	}
	if raw := strings.TrimSpace(query.Get("payment_status")); raw != "" {
		status, err := enums.ParseOrderPaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status filter")
		}
		filters.PaymentStatus = &status
	}

	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return filters, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return filters, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	filters.DateFrom, filters.DateTo = from, to
	filters.Query = validators.SanitizeString(query.Get("q"), 64)
	return filters, nil
}

func viewerFromRequest(r *http.Request) (internalorders.Viewer, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return internalorders.Viewer{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	return internalorders.Viewer{UserID: userID, Role: middleware.RoleFromContext(r.Context())}, nil
}

func dealerFromRequest(r *http.Request) (uuid.UUID, error) {
	dealerID, ok := middleware.DealerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "dealer account required")
	}
	return dealerID, nil
}
