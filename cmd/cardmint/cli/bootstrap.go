package cli

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/cardmint/cardmint/internal/shared"
	"github.com/cardmint/cardmint/internal/users"
)

// BootstrapCLI seeds the first admin account and ops sessions. A fresh
// deployment has no admin to call the admin endpoints, so this path writes
// through the repository directly instead of the service.
type BootstrapCLI struct {
	users    *users.Repository
	sessions *shared.SessionManager
}

// NewBootstrapCLI constructs the bootstrap helpers.
func NewBootstrapCLI(usersRepo *users.Repository, sessions *shared.SessionManager) *BootstrapCLI {
	return &BootstrapCLI{users: usersRepo, sessions: sessions}
}

// SeedAdmin creates an admin account unless the username already exists.
func (c *BootstrapCLI) SeedAdmin(ctx context.Context, username, password string) (int64, error) {
	if c == nil || c.users == nil {
		return 0, errors.New("bootstrap cli: users repository not configured")
	}
	if len(username) < 3 {
		return 0, fmt.Errorf("%w: username must be at least 3 characters", shared.ErrInvalidInput)
	}
	if len(password) < 8 || len(password) > 72 {
		return 0, fmt.Errorf("%w: password must be 8 to 72 characters", shared.ErrInvalidInput)
	}
	exists, err := c.users.ExistsByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, shared.ErrDuplicate
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return c.users.CreateUser(ctx, users.User{
		Username:     username,
		Role:         shared.RoleAdmin,
		PasswordHash: string(hash),
	})
}

// MintSession writes a session for an existing account and returns its ID.
// Intended for smoke tests against a running instance.
func (c *BootstrapCLI) MintSession(ctx context.Context, username string) (string, error) {
	if c == nil || c.sessions == nil {
		return "", errors.New("bootstrap cli: session manager not configured")
	}
	user, err := c.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return c.sessions.Seed(ctx, user.Username, user.Role)
}
