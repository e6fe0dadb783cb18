package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/api/responses"
	"github.com/angelmondragon/partsdealer-backend/api/validators"
	cartsvc "github.com/angelmondragon/partsdealer-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
)

// CartFetch returns the buyer's cart priced against live products.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.GetCart(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds a product or merges it into an existing line with the
// same options, then returns the refreshed cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, err := svc.AddItem(r.Context(), buyerID, cartsvc.AddItemInput{
			ProductID:       payload.ProductID,
			Quantity:        payload.Quantity,
			SelectedOptions: payload.SelectedOptions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusCreated, buyerID)
	}
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.UpdateQuantity(r.Context(), buyerID, itemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK, buyerID)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), buyerID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, logg, http.StatusOK, buyerID)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CartValidate rechecks every line against live stock without changing the cart.
func CartValidate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := buyer(w, r, svc, logg)
		if !ok {
			return
		}
		result, err := svc.Validate(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func writeCart(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger, status int, buyerID uuid.UUID) {
	view, err := svc.GetCart(r.Context(), buyerID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, view)
}

func buyer(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}
	buyerID := middleware.UserIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
		return uuid.Nil, false
	}
	return buyerID, true
}
