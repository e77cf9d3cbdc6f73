package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-platform/auth-service/internal/types"
)

func testMiddleware(t *testing.T) (*TokenService, *Middleware) {
	t.Helper()
	tokens := tokenServiceWith(t, "middleware-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tokens, NewMiddleware(tokens, "token", logger)
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, int64(42), userID)
		_, ok = GetUserRoleFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	t.Run("Should accept the session cookie", func(t *testing.T) {
		tokens, mw := testMiddleware(t)
		token, err := tokens.Issue(42, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		w := httptest.NewRecorder()
		mw.Authenticate(protectedEcho(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should prefer the cookie over the Authorization header", func(t *testing.T) {
		tokens, mw := testMiddleware(t)
		token, err := tokens.Issue(42, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		mw.Authenticate(protectedEcho(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		expiredIssuer := tokenServiceWith(t, "middleware-secret", -time.Hour)
		_, mw := testMiddleware(t)
		token, err := expiredIssuer.Issue(42, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		w := httptest.NewRecorder()
		mw.Authenticate(protectedEcho(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
	})

	t.Run("Should reject when no credential is present", func(t *testing.T) {
		_, mw := testMiddleware(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		mw.Authenticate(protectedEcho(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Should allow an admin through", func(t *testing.T) {
		tokens, mw := testMiddleware(t)
		token, err := tokens.Issue(1, types.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		w := httptest.NewRecorder()
		mw.Authenticate(mw.RequireAdmin(ok)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should forbid a regular user", func(t *testing.T) {
		tokens, mw := testMiddleware(t)
		token, err := tokens.Issue(42, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		w := httptest.NewRecorder()
		mw.Authenticate(mw.RequireAdmin(ok)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should reject an unauthenticated request", func(t *testing.T) {
		_, mw := testMiddleware(t)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		mw.RequireAdmin(ok).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
