package auth

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster-platform/auth-service/internal/types"
)

// validate holds the shared validator instance for request payloads.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterRequest represents the signup request body.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserStore is the slice of the user directory the auth flows need.
// Satisfied by the cached user repository injected at startup.
type UserStore interface {
	Insert(ctx context.Context, user *types.User) (int64, error)
	FindByID(ctx context.Context, userID int64) (*types.User, error)
	FindByUsername(ctx context.Context, username string) (*types.User, error)
	FindByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateFields(ctx context.Context, userID int64, params types.UpdateUserParams) error
	MarkVerified(ctx context.Context, userID int64) error
	Delete(ctx context.Context, userID int64) error
}
