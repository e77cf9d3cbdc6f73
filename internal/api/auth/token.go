package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

// Claims carried by every signed token. The same token shape serves both
// session credentials and email-verification links; there is no purpose
// claim, so a valid unexpired token for a subject is interchangeable
// between the two uses.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring session tokens.
// Tokens are stateless; there is no server-side revocation.
type TokenService struct {
	secretKey []byte
	issuer    string
	expiresIn time.Duration
}

// NewTokenService creates a token service from configuration.
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("JWT secret key is not configured")
	}
	expiresIn := cfg.JWT.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &TokenService{
		secretKey: []byte(cfg.JWT.SecretKey),
		issuer:    cfg.JWT.Issuer,
		expiresIn: expiresIn,
	}, nil
}

// Issue produces a signed token embedding the subject id and role.
func (s *TokenService) Issue(userID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Expired tokens
// surface types.ErrTokenExpired; every other failure mode surfaces
// types.ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.ErrTokenExpired
		}
		return nil, types.ErrInvalidToken
	}
	if !token.Valid {
		return nil, types.ErrInvalidToken
	}
	return claims, nil
}
