package users

import (
	"time"

	"github.com/cardmint/cardmint/internal/shared"
)

// User represents a user account. The password hash is opaque to this
// service beyond bcrypt comparison and is never serialized.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Role         shared.Role `json:"role"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CreateUserRequest carries the inputs for creating an account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

// RoleUpdateRequest changes an account's role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required"`
}

// PasswordUpdateRequest replaces an account's password.
type PasswordUpdateRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ListRequest carries pass-through pagination and an optional username
// filter.
type ListRequest struct {
	Username string
	Page     int
	PerPage  int
}
