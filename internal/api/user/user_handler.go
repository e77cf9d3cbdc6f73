package user

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskmaster-platform/auth-service/internal/api"
	"github.com/taskmaster-platform/auth-service/internal/api/auth"
)

var _ Handler = (*HandlerImpl)(nil)

// Handler exposes the directory's HTTP surface: admin CRUD plus the
// self-service profile update.
type Handler interface {
	GetAllUsers(w http.ResponseWriter, r *http.Request)
	GetUserByID(w http.ResponseWriter, r *http.Request)
	CreateUser(w http.ResponseWriter, r *http.Request)
	UpdateUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

func userIDFromURL(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// GetAllUsers lists every account, sanitized. Admin only.
func (h *HandlerImpl) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetAllUsers"))

	users, err := h.userService.GetAllUsers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, users, "")
}

// GetUserByID fetches a single account, sanitized. Admin only.
func (h *HandlerImpl) GetUserByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetUserByID"))

	userID, ok := userIDFromURL(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		l.DebugContext(ctx, "Failed to fetch user", slog.Int64("userID", userID), slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, u, "")
}

// CreateUser provisions an account. Admin only.
func (h *HandlerImpl) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CreateUser"))

	var params CreateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	params.Normalize()
	if err := params.Validate(); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user payload")
		return
	}

	u, err := h.userService.CreateUser(ctx, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, u, "User created")
}

// UpdateUser applies a partial update to any account. Admin only.
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateUser"))

	userID, ok := userIDFromURL(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var params UpdateUserRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid update payload")
		return
	}

	u, err := h.userService.UpdateUser(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user", slog.Int64("userID", userID), slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, u, "User updated")
}

// DeleteUser removes an account and purges its todo data. Admin only.
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DeleteUser"))

	userID, ok := userIDFromURL(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(ctx, userID, r.Cookies()); err != nil {
		l.ErrorContext(ctx, "Failed to delete user", slog.Int64("userID", userID), slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, nil, "User deleted")
}

// UpdateProfile lets the authenticated user change their own identity fields.
func (h *HandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params UpdateUserRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid update payload")
		return
	}

	u, err := h.userService.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update profile", slog.Int64("userID", userID), slog.Any("error", err))
		status, msg := api.StatusForError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, u, "Profile updated")
}
