package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

func tokenServiceWith(t *testing.T, secret string, expiresIn time.Duration) *TokenService {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.SecretKey = secret
	cfg.JWT.Issuer = "auth-service-test"
	cfg.JWT.ExpiresIn = expiresIn
	ts, err := NewTokenService(cfg)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	t.Run("Should reject an empty secret", func(t *testing.T) {
		_, err := NewTokenService(&config.Config{})
		assert.Error(t, err)
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	t.Run("Should verify its own tokens and preserve claims", func(t *testing.T) {
		ts := tokenServiceWith(t, "secret", time.Hour)

		token, err := ts.Issue(42, types.RoleAdmin)
		require.NoError(t, err)

		claims, err := ts.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, types.RoleAdmin, claims.Role)
		assert.Equal(t, "auth-service-test", claims.Issuer)
	})
}

func TestTokenService_Verify(t *testing.T) {
	t.Run("Should reject an expired token", func(t *testing.T) {
		ts := tokenServiceWith(t, "secret", time.Hour)
		claims := Claims{
			UserID: 42,
			Role:   types.RoleUser,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "auth-service-test",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ts.Verify(expired)
		assert.ErrorIs(t, err, types.ErrTokenExpired)
	})

	t.Run("Should reject a token signed with a different key", func(t *testing.T) {
		issuer := tokenServiceWith(t, "secret-a", time.Hour)
		verifier := tokenServiceWith(t, "secret-b", time.Hour)

		token, err := issuer.Issue(42, types.RoleUser)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("Should reject a tampered token", func(t *testing.T) {
		ts := tokenServiceWith(t, "secret", time.Hour)
		token, err := ts.Issue(42, types.RoleUser)
		require.NoError(t, err)

		_, err = ts.Verify(token + "x")
		assert.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("Should reject the none algorithm", func(t *testing.T) {
		ts := tokenServiceWith(t, "secret", time.Hour)
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "auth-service-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Verify(unsigned)
		assert.ErrorIs(t, err, types.ErrInvalidToken)
	})

	t.Run("Should reject a wrong issuer", func(t *testing.T) {
		ts := tokenServiceWith(t, "secret", time.Hour)
		claims := Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ts.Verify(foreign)
		assert.ErrorIs(t, err, types.ErrInvalidToken)
	})
}
