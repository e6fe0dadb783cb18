package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxDealerID contextKey = "dealer_id"
)

// UserIDFromContext returns the authenticated user, or uuid.Nil outside Auth.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// DealerIDFromContext is only set for dealer tokens.
func DealerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxDealerID).(uuid.UUID)
	return v, ok && v != uuid.Nil
}

// WithIdentity injects the caller identity. Auth uses it; tests use it to
// skip token minting.
func WithIdentity(ctx context.Context, userID uuid.UUID, role enums.ActorRole, dealerID *uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if dealerID != nil {
		ctx = context.WithValue(ctx, ctxDealerID, *dealerID)
	}
	return ctx
}
