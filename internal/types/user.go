package types

import "time"

// Roles assignable to a user. Admin is only ever set by bootstrap or
// direct administrative provisioning, never by self-registration.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents the core user entity in the directory.
type User struct {
	UserID       int64     `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Hashed password, never exposed.
	Role         string    `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SanitizedUser is the fixed projection returned by every user-shaped
// response. It carries no credential material.
type SanitizedUser struct {
	UserID     int64     `json:"userId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName,omitempty"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FullName joins first and last name for display and email templates.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Sanitize projects a user onto the response field set, stripping the
// password hash.
func (u *User) Sanitize() *SanitizedUser {
	if u == nil {
		return nil
	}
	return &SanitizedUser{
		UserID:     u.UserID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// SanitizeUsers applies the same projection per element.
func SanitizeUsers(users []User) []*SanitizedUser {
	out := make([]*SanitizedUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Sanitize())
	}
	return out
}

// UpdateUserParams defines the fields allowed for partial user updates.
// Pointers distinguish "not provided" from an explicit empty value.
type UpdateUserParams struct {
	FirstName    *string
	LastName     *string
	Username     *string
	Email        *string
	PasswordHash *string
}

// IsZero reports whether no field was supplied at all.
func (p UpdateUserParams) IsZero() bool {
	return p.FirstName == nil && p.LastName == nil && p.Username == nil &&
		p.Email == nil && p.PasswordHash == nil
}
