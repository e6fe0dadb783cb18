package payments

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/api/responses"
	"github.com/angelmondragon/partsdealer-backend/api/validators"
	internalorders "github.com/angelmondragon/partsdealer-backend/internal/orders"
	internalpayments "github.com/angelmondragon/partsdealer-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
)

// orderReader is the slice of the orders service needed to price a payment.
type orderReader interface {
	GetOrderByID(ctx context.Context, viewer internalorders.Viewer, orderID uuid.UUID) (*internalorders.OrderDetail, error)
}

type payOrderRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id" validate:"required"`
}

func MethodCreate(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := user(w, r, logg)
		if !ok {
			return
		}
		var payload internalpayments.CreateMethodInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := svc.CreatePaymentMethod(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalpayments.NewMethodView(*method))
	}
}

// MethodList returns the caller's saved methods, default first.
func MethodList(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := user(w, r, logg)
		if !ok {
			return
		}
		methods, err := svc.GetUserPaymentMethods(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]internalpayments.MethodView, 0, len(methods))
		for _, m := range methods {
			views = append(views, internalpayments.NewMethodView(m))
		}
		responses.WriteSuccess(w, views)
	}
}

// OrderPay charges the order total as it was priced at checkout. A declined
// attempt is reported as PAYMENT_FAILED with the attempt id in details.
func OrderPay(svc internalpayments.Service, orders orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := user(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload payOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orders.GetOrderByID(r.Context(), internalorders.BuyerViewer(userID), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.ProcessPayment(r.Context(), internalpayments.ProcessInput{
			OrderID:         order.ID,
			BuyerID:         userID,
			PaymentMethodID: payload.PaymentMethodID,
			AmountCents:     order.TotalCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalpayments.NewPaymentView(*payment))
	}
}

func OrderPayments(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := user(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attempts, err := svc.GetOrderPayments(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]internalpayments.PaymentView, 0, len(attempts))
		for _, p := range attempts {
			views = append(views, internalpayments.NewPaymentView(p))
		}
		responses.WriteSuccess(w, views)
	}
}

func user(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
		return uuid.Nil, false
	}
	return userID, true
}
