package types

import "errors"

// Sentinel errors for the identity domain. Handlers map these onto HTTP
// statuses; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrValidation marks malformed or missing input (400).
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a missing user or resource (404).
	ErrNotFound = errors.New("requested item not found")

	// Conflict-class outcomes (409).
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUserNotVerified = errors.New("user not verified, verification email sent")

	// Unauthenticated outcomes (401). ErrInvalidCredentials is shared by
	// unknown-email and wrong-password so responses never leak which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	// ErrEmailDeliveryFailed marks a notification-gateway failure during
	// registration (503).
	ErrEmailDeliveryFailed = errors.New("failed to send verification email")
)
