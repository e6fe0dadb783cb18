package orders

import (
	"net/http"

	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/api/responses"
	"github.com/angelmondragon/partsdealer-backend/api/validators"
	internalorders "github.com/angelmondragon/partsdealer-backend/internal/orders"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
)

// DealerList returns orders containing at least one of the dealer's items,
// projected onto those items.
func DealerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dealerID, err := dealerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.GetDealerOrders(r.Context(), dealerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func DealerDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dealerID, err := dealerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetDealerOrder(r.Context(), dealerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DealerUpdateShipping moves the order's shipping status forward.
func DealerUpdateShipping(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dealerID, err := dealerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload shippingUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.TrackingNumber != nil {
			tracking := validators.SanitizeString(*payload.TrackingNumber, 100)
			payload.TrackingNumber = &tracking
		}

		view, err := svc.UpdateShippingStatus(r.Context(), internalorders.ShippingUpdateInput{
			OrderID:        orderID,
			DealerID:       dealerID,
			ActorUserID:    middleware.UserIDFromContext(r.Context()),
			Status:         enums.ShippingStatus(payload.Status),
			TrackingNumber: payload.TrackingNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
