package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskmaster-platform/auth-service/internal/api"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's id (int64).
	UserIDKey contextKey = "userID"
	// UserRoleKey is the context key for the authenticated user's role (string).
	UserRoleKey contextKey = "userRole"
)

// GetUserIDFromContext returns the authenticated user's id set by Authenticate.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserRoleFromContext returns the authenticated user's role set by Authenticate.
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// Middleware authenticates requests and gates admin-only routes.
type Middleware struct {
	tokens     *TokenService
	logger     *slog.Logger
	cookieName string
}

func NewMiddleware(tokens *TokenService, cookieName string, logger *slog.Logger) *Middleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Middleware{
		tokens:     tokens,
		logger:     logger,
		cookieName: cookieName,
	}
}

// tokenFromRequest extracts the session token, preferring the cookie and
// falling back to a Bearer authorization header.
func (m *Middleware) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Authenticate verifies the session token and stores the subject id and role
// in the request context. Requests without a valid token get 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenString := m.tokenFromRequest(r)
		if tokenString == "" {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, types.ErrTokenExpired) {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Session expired")
				return
			}
			m.logger.DebugContext(ctx, "Rejected invalid session token", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid session token")
			return
		}

		ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only authenticated admins through. Must run after
// Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetUserRoleFromContext(r.Context())
		if !ok {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		if role != types.RoleAdmin {
			api.ErrorResponse(w, r, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
