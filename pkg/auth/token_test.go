package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "partsdealer", ExpirationMinutes: 30}
}

func TestMintAndParseDealerToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	dealerID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID:   userID,
		Role:     enums.ActorRoleDealer,
		DealerID: &dealerID,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, enums.ActorRoleDealer, claims.Role)
	require.NotNil(t, claims.DealerID)
	require.Equal(t, dealerID, *claims.DealerID)
	require.Equal(t, cfg.Issuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestMintRejectsDealerWithoutDealerID(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleDealer})
	require.Error(t, err)
}

func TestMintRejectsSystemRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleSystem})
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleBuyer})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuerAndSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleBuyer})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	other = cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	_, err = ParseAccessToken(cfg, strings.TrimSuffix(token, token[len(token)-2:]))
	require.Error(t, err)
}
