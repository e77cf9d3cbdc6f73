package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskmaster-platform/auth-service/internal/gateway"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for the credential
// lifecycle: registration, email verification, login and session lookup.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*types.User, error)
	Verify(ctx context.Context, tokenString string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	GetCurrentUser(ctx context.Context, userID int64) (*types.User, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *slog.Logger
	store  UserStore
	tokens *TokenService
	mailer gateway.EmailSender
}

// NewAuthService creates a new auth service instance.
func NewAuthService(store UserStore, tokens *TokenService, mailer gateway.EmailSender, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		store:  store,
		tokens: tokens,
		mailer: mailer,
	}
}

// resendVerification reissues a verification token and dispatches the email.
// Failures are logged only; callers still report the conflict outcome.
func (s *AuthServiceImpl) resendVerification(ctx context.Context, u *types.User, l *slog.Logger) {
	token, err := s.tokens.Issue(u.UserID, u.Role)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue verification token for resend", slog.Any("error", err))
		return
	}
	if err := s.mailer.SendRegistrationEmail(ctx, u.Email, token, u.FullName()); err != nil {
		l.WarnContext(ctx, "Failed to resend verification email", slog.Any("error", err))
	}
}

// Register runs the registration state machine. New accounts start
// unverified with role=user and no session; a verification email carries the
// token. An unverified username may be re-registered in place with a new
// email as long as that email is not claimed by someone else.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", req.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))
	l.DebugContext(ctx, "Registering user")

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	byUsername, err := s.store.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Username lookup failed")
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if byUsername != nil {
		if byUsername.IsVerified {
			span.SetStatus(codes.Error, "Username taken")
			return nil, types.ErrUsernameTaken
		}

		// Unverified holder of this username. The new email must not belong
		// to a different account.
		byEmail, err := s.store.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Email lookup failed")
			return nil, fmt.Errorf("error checking email: %w", err)
		}
		if byEmail != nil && byEmail.UserID != byUsername.UserID {
			span.SetStatus(codes.Error, "Email taken")
			return nil, types.ErrEmailTaken
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Password hashing failed")
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		update := types.UpdateUserParams{
			FirstName:    &req.FirstName,
			LastName:     &req.LastName,
			Email:        &email,
			PasswordHash: &hash,
		}
		if err := s.store.UpdateFields(ctx, byUsername.UserID, update); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Re-registration update failed")
			return nil, fmt.Errorf("error updating unverified user: %w", err)
		}

		refreshed := *byUsername
		refreshed.FirstName = req.FirstName
		refreshed.LastName = req.LastName
		refreshed.Email = email
		s.resendVerification(ctx, &refreshed, l)

		l.InfoContext(ctx, "Unverified account re-registered, verification email resent",
			slog.Int64("userID", byUsername.UserID))
		span.SetStatus(codes.Ok, "Re-registration resend")
		return nil, types.ErrUserNotVerified
	}

	byEmail, err := s.store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Email lookup failed")
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if byEmail != nil {
		if byEmail.IsVerified {
			span.SetStatus(codes.Error, "Email taken")
			return nil, types.ErrEmailTaken
		}
		s.resendVerification(ctx, byEmail, l)
		l.InfoContext(ctx, "Verification email resent for unverified account",
			slog.Int64("userID", byEmail.UserID))
		span.SetStatus(codes.Ok, "Resend for unverified email")
		return nil, types.ErrUserNotVerified
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u := &types.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         types.RoleUser,
		IsVerified:   false,
	}
	userID, err := s.store.Insert(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, err
	}
	u.UserID = userID

	token, err := s.tokens.Issue(userID, u.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issuance failed")
		return nil, fmt.Errorf("error issuing verification token: %w", err)
	}

	if err := s.mailer.SendRegistrationEmail(ctx, email, token, u.FullName()); err != nil {
		l.ErrorContext(ctx, "Verification email dispatch failed, rolling back account",
			slog.Int64("userID", userID), slog.Any("error", err))
		if delErr := s.store.Delete(ctx, userID); delErr != nil {
			l.ErrorContext(ctx, "Failed to roll back account after email failure",
				slog.Int64("userID", userID), slog.Any("error", delErr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Email dispatch failed")
		return nil, types.ErrEmailDeliveryFailed
	}

	l.InfoContext(ctx, "User registered, verification email sent", slog.Int64("userID", userID))
	span.SetStatus(codes.Ok, "User registered")
	return u, nil
}

// Verify validates a verification token and marks its subject verified.
// Re-verifying an already-verified account is not an error. The same token
// is returned for the session credential.
func (s *AuthServiceImpl) Verify(ctx context.Context, tokenString string) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Verify")
	defer span.End()

	l := s.logger.With(slog.String("method", "Verify"))

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid verification token")
		return nil, "", err
	}

	u, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Token subject absent")
			return nil, "", types.ErrInvalidToken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subject lookup failed")
		return nil, "", fmt.Errorf("error loading token subject: %w", err)
	}

	if !u.IsVerified {
		if err := s.store.MarkVerified(ctx, u.UserID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Verification update failed")
			return nil, "", fmt.Errorf("error marking user verified: %w", err)
		}
		u.IsVerified = true
		l.InfoContext(ctx, "User verified", slog.Int64("userID", u.UserID))
	}

	span.SetStatus(codes.Ok, "User verified")
	return u, tokenString, nil
}

// Login authenticates by email and password and issues a session token.
// Unknown email and wrong password are indistinguishable to the caller; an
// unverified account gets a fresh verification email and a conflict.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Unknown email")
			return nil, "", types.ErrInvalidCredentials
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Email lookup failed")
		return nil, "", fmt.Errorf("error looking up user: %w", err)
	}

	if !u.IsVerified {
		s.resendVerification(ctx, u, l)
		l.InfoContext(ctx, "Login attempt on unverified account, verification email resent",
			slog.Int64("userID", u.UserID))
		span.SetStatus(codes.Error, "Account not verified")
		return nil, "", types.ErrUserNotVerified
	}

	if !CheckPassword(password, u.PasswordHash) {
		span.SetStatus(codes.Error, "Password mismatch")
		return nil, "", types.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.UserID, u.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issuance failed")
		return nil, "", fmt.Errorf("error issuing session token: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.Int64("userID", u.UserID))
	span.SetStatus(codes.Ok, "Login succeeded")
	return u, token, nil
}

// GetCurrentUser loads the authenticated subject.
func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, userID int64) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetCurrentUser", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subject lookup failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Subject loaded")
	return u, nil
}
