package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/api"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

// Handler exposes the credential lifecycle over HTTP.
type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	GetCurrentUser(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
	cookieCfg   config.Config
}

// NewHandlerImpl creates a new auth HandlerImpl instance.
func NewHandlerImpl(authService AuthService, cfg config.Config, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
		cookieCfg:   cfg,
	}
}

func (h *HandlerImpl) cookieName() string {
	if h.cookieCfg.Cookie.Name != "" {
		return h.cookieCfg.Cookie.Name
	}
	return "token"
}

func (h *HandlerImpl) sameSite() http.SameSite {
	switch h.cookieCfg.Cookie.SameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// setSessionCookie attaches the session credential as an httpOnly cookie.
func (h *HandlerImpl) setSessionCookie(w http.ResponseWriter, token string) {
	maxAge := h.cookieCfg.Cookie.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieCfg.Cookie.Secure,
		SameSite: h.sameSite(),
	})
}

func (h *HandlerImpl) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieCfg.Cookie.Secure,
		SameSite: h.sameSite(),
	})
}

// Register handles signup. A 201 means the account was created and a
// verification email dispatched; no session is established yet.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	u, err := h.authService.Register(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrUserNotVerified) {
			api.ErrorResponse(w, r, http.StatusConflict, "Account pending verification, a new email was sent")
			return
		}
		if !errors.Is(err, types.ErrUsernameTaken) && !errors.Is(err, types.ErrEmailTaken) {
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		}
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, u.Sanitize(), "Account created, please verify your email")
}

// Verify handles the emailed verification link and establishes a session on
// success.
func (h *HandlerImpl) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Verify"))

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing verification token")
		return
	}

	u, token, err := h.authService.Verify(ctx, tokenString)
	if err != nil {
		l.DebugContext(ctx, "Verification failed", slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	h.setSessionCookie(w, token)
	api.SuccessResponse(w, r, http.StatusOK, u.Sanitize(), "Email verified")
}

// Login authenticates and establishes a session.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid login payload")
		return
	}

	u, token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrUserNotVerified) {
			api.ErrorResponse(w, r, http.StatusConflict, "Account pending verification, a new email was sent")
			return
		}
		if !errors.Is(err, types.ErrInvalidCredentials) {
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		}
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	h.setSessionCookie(w, token)
	api.SuccessResponse(w, r, http.StatusOK, u.Sanitize(), "Login successful")
}

// GetCurrentUser returns the authenticated subject's sanitized record.
func (h *HandlerImpl) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetCurrentUser"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	u, err := h.authService.GetCurrentUser(ctx, userID)
	if err != nil {
		l.DebugContext(ctx, "Failed to load current user", slog.Int64("userID", userID), slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, u.Sanitize(), "")
}

// Logout clears the session cookie. Tokens are stateless, so the credential
// itself stays valid until expiry.
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	api.SuccessResponse(w, r, http.StatusOK, nil, "Logged out")
}
