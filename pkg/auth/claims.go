package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	DealerID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by clients. DealerID is
// set only for dealer accounts.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Role     enums.ActorRole `json:"role"`
	DealerID *uuid.UUID      `json:"dealer_id,omitempty"`
	jwt.RegisteredClaims
}
