package user

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster-platform/auth-service/internal/api/auth"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateUserParams carries an administrative account creation request.
type CreateUserParams struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user"`
}

// Normalize lowercases the identity fields used in uniqueness checks.
func (p *CreateUserParams) Normalize() {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
}

// Validate checks required fields and formats.
func (p *CreateUserParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return types.ErrValidation
	}
	return nil
}

// UpdateUserRequest carries a partial update. Absent fields stay untouched;
// a provided password is re-hashed before persisting.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName"`
	Username  *string `json:"username" validate:"omitempty,min=1"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
}

// Validate checks formats on the provided fields only.
func (p *UpdateUserRequest) Validate() error {
	if err := validate.Struct(p); err != nil {
		return types.ErrValidation
	}
	return nil
}

// toParams converts the request into store update params, hashing any new
// password and normalizing identity fields.
func (p *UpdateUserRequest) toParams() (types.UpdateUserParams, error) {
	out := types.UpdateUserParams{
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
	if p.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*p.Username))
		out.Username = &username
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		out.Email = &email
	}
	if p.Password != nil {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return types.UpdateUserParams{}, err
		}
		out.PasswordHash = &hash
	}
	return out, nil
}
