package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough",
		RefreshSecret:          "test-refresh-secret-key-long-enough",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "playhub-test",
		MaxRefreshCount:        2,
	})
}

func testInput() GenerateTokenInput {
	return GenerateTokenInput{UserID: uuid.New(), Username: "alice", Role: "user"}
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestJWTService()
	input := testInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.False(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.GetRemainingTTL().Seconds(), 5)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	assert.Empty(t, refreshClaims.Username)
}

func TestValidate_Errors(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	t.Run("refresh token as access token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong type with shared secret", func(t *testing.T) {
		shared := NewJWTService(config.JWTConfig{
			Secret:                 "only-one-secret-for-both-tokens!!",
			AccessTokenExpiration:  time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "playhub-test",
			MaxRefreshCount:        1,
		})
		p, err := shared.GenerateTokenPair(testInput())
		require.NoError(t, err)
		_, err = shared.ValidateAccessToken(p.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "playhub-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			UserID:    uuid.NewString(),
			TokenType: TokenTypeAccess,
		}
		token, err := svc.sign(claims, svc.accessSecret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "playhub-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID:    uuid.NewString(),
			TokenType: TokenTypeAccess,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(svc.accessSecret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := svc.sign(&Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "playhub-test"},
			UserID:           uuid.NewString(),
			TokenType:        TokenTypeAccess,
		}, svc.accessSecret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID:    uuid.NewString(),
			TokenType: TokenTypeAccess,
		}
		token, err := svc.sign(claims, svc.accessSecret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	input := testInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	input.Role = "admin"
	refreshed, err := svc.RefreshTokenPair(pair.RefreshToken, input)
	require.NoError(t, err)

	access, err := svc.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, access.IsAdmin())

	refreshClaims, err := svc.ValidateRefreshToken(refreshed.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshClaims.RefreshCount)

	second, err := svc.RefreshTokenPair(refreshed.RefreshToken, input)
	require.NoError(t, err)

	_, err = svc.RefreshTokenPair(second.RefreshToken, input)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)

	other := testInput()
	_, err = svc.RefreshTokenPair(pair.RefreshToken, other)
	assert.ErrorIs(t, err, ErrSubjectMismatch)
}
