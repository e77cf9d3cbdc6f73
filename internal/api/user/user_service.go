package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/api/auth"
	"github.com/taskmaster-platform/auth-service/internal/gateway"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for directory operations.
// Administrative callers receive sanitized views; password hashes never
// leave this layer.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]*types.SanitizedUser, error)
	GetUserByID(ctx context.Context, userID int64) (*types.SanitizedUser, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*types.SanitizedUser, error)
	UpdateUser(ctx context.Context, userID int64, params UpdateUserRequest) (*types.SanitizedUser, error)
	DeleteUser(ctx context.Context, userID int64, cookies []*http.Cookie) error
	UpdateProfile(ctx context.Context, userID int64, params UpdateUserRequest) (*types.SanitizedUser, error)
	InitializeAdmin(ctx context.Context) error
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger      *slog.Logger
	repo        UserRepo
	todoCleaner gateway.TodoCleaner
	adminCfg    config.AdminConfig
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, todoCleaner gateway.TodoCleaner, adminCfg config.AdminConfig, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:      logger,
		repo:        repo,
		todoCleaner: todoCleaner,
		adminCfg:    adminCfg,
	}
}

// GetAllUsers returns every user in the directory, sanitized.
func (s *UserServiceImpl) GetAllUsers(ctx context.Context) ([]*types.SanitizedUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetAllUsers")
	defer span.End()

	l := s.logger.With(slog.String("method", "GetAllUsers"))
	l.DebugContext(ctx, "Listing users")

	users, err := s.repo.ListAll(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return types.SanitizeUsers(users), nil
}

// GetUserByID returns a single sanitized user.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, userID int64) (*types.SanitizedUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUserByID", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetUserByID"), slog.Int64("userID", userID))
	l.DebugContext(ctx, "Fetching user")

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user")
		return nil, err
	}

	span.SetStatus(codes.Ok, "User fetched")
	return u.Sanitize(), nil
}

// CreateUser provisions a user on behalf of an administrator. Created
// accounts are verified immediately; no email is dispatched.
func (s *UserServiceImpl) CreateUser(ctx context.Context, params CreateUserParams) (*types.SanitizedUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "CreateUser", trace.WithAttributes(
		attribute.String("user.username", params.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateUser"), slog.String("username", params.Username))
	l.DebugContext(ctx, "Creating user")

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to hash password")
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = types.RoleUser
	}

	u := &types.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}
	userID, err := s.repo.Insert(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert user")
		return nil, err
	}
	u.UserID = userID

	created, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		// The insert committed; return what we know.
		l.WarnContext(ctx, "Failed to re-read created user", slog.Any("error", err))
		span.SetStatus(codes.Ok, "User created")
		return u.Sanitize(), nil
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", userID))
	span.SetStatus(codes.Ok, "User created")
	return created.Sanitize(), nil
}

// UpdateUser applies a partial administrative update and returns the fresh
// record.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID int64, params UpdateUserRequest) (*types.SanitizedUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUser", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUser"), slog.Int64("userID", userID))
	l.DebugContext(ctx, "Updating user")

	update, err := params.toParams()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid update")
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, userID, update); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user")
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to re-read updated user")
		return nil, err
	}

	l.InfoContext(ctx, "User updated")
	span.SetStatus(codes.Ok, "User updated")
	return u.Sanitize(), nil
}

// DeleteUser removes a user and best-effort purges their todo data. A
// gateway failure never blocks the account deletion.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID int64, cookies []*http.Cookie) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "DeleteUser", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteUser"), slog.Int64("userID", userID))
	l.DebugContext(ctx, "Deleting user")

	if err := s.repo.Delete(ctx, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete user")
		return err
	}

	if err := s.todoCleaner.DeleteUserLists(ctx, userID, cookies); err != nil {
		l.WarnContext(ctx, "Failed to clean up user todo lists", slog.Any("error", err))
	}

	l.InfoContext(ctx, "User deleted")
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}

// UpdateProfile lets a user change their own identity fields. Role changes
// are not accepted here.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID int64, params UpdateUserRequest) (*types.SanitizedUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateProfile", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.Int64("userID", userID))
	l.DebugContext(ctx, "Updating profile")

	update, err := params.toParams()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid update")
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, userID, update); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update profile")
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to re-read profile")
		return nil, err
	}

	l.InfoContext(ctx, "Profile updated")
	span.SetStatus(codes.Ok, "Profile updated")
	return u.Sanitize(), nil
}

// InitializeAdmin seeds the bootstrap administrator account on startup when
// it does not already exist.
func (s *UserServiceImpl) InitializeAdmin(ctx context.Context) error {
	l := s.logger.With(slog.String("method", "InitializeAdmin"))

	if s.adminCfg.Email == "" || s.adminCfg.Password == "" {
		l.WarnContext(ctx, "Admin bootstrap skipped, credentials not configured")
		return nil
	}

	_, err := s.repo.FindByEmail(ctx, s.adminCfg.Email)
	if err == nil {
		l.DebugContext(ctx, "Admin account already present")
		return nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("error checking for admin account: %w", err)
	}

	hash, err := auth.HashPassword(s.adminCfg.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &types.User{
		FirstName:    s.adminCfg.FirstName,
		LastName:     s.adminCfg.LastName,
		Username:     s.adminCfg.Username,
		Email:        s.adminCfg.Email,
		PasswordHash: hash,
		Role:         types.RoleAdmin,
		IsVerified:   true,
	}
	if _, err := s.repo.Insert(ctx, admin); err != nil {
		if errors.Is(err, types.ErrUsernameTaken) || errors.Is(err, types.ErrEmailTaken) {
			l.DebugContext(ctx, "Admin account already present")
			return nil
		}
		return fmt.Errorf("error creating admin account: %w", err)
	}

	l.InfoContext(ctx, "Admin account created", slog.String("username", s.adminCfg.Username))
	return nil
}
