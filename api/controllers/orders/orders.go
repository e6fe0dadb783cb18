package orders

import (
	"net/http"

	"github.com/angelmondragon/partsdealer-backend/api/responses"
	"github.com/angelmondragon/partsdealer-backend/api/validators"
	internalorders "github.com/angelmondragon/partsdealer-backend/internal/orders"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
)

// Create checks out the buyer's cart. When pay_now is set and the payment
// fails, the order is still returned with 201 and the failure is reported in
// payment_error; the buyer can retry payment against the pending order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParseShippingMethod(payload.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}

		result, err := svc.CreateOrder(r.Context(), viewer.UserID, internalorders.CreateOrderInput{
			ShippingAddress: payload.ShippingAddress,
			ShippingMethod:  method,
			PaymentMethodID: payload.PaymentMethodID,
			Notes:           validators.SanitizeString(payload.Notes, 1000),
			PayNow:          payload.PayNow,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := createOrderResponse{Order: result.Order}
		if result.Payment != nil {
			out.Payment = result.Payment
		}
		if result.PaymentError != nil {
			public := responses.PublicError(result.PaymentError)
			out.PaymentError = &public
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// List returns the buyer's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := viewerFromRequest(r)
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
		page, err := svc.GetUserOrders(r.Context(), viewer.UserID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Detail returns the full order to its buyer or an admin. Dealers get only
// their own lines.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if viewer.Role == enums.ActorRoleDealer {
			dealerID, err := dealerFromRequest(r)
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
			return
		}

		detail, err := svc.GetOrderByID(r.Context(), viewer, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		detail, err := svc.CancelOrder(r.Context(), viewer.UserID, orderID, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Events returns the order's audit trail, oldest first.
func Events(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.ListEvents(r.Context(), viewer, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}
