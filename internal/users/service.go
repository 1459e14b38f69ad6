package users

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/cardmint/cardmint/internal/authz"
	"github.com/cardmint/cardmint/internal/shared"
)

// Service handles user account management. Passwords are bcrypt hashed;
// role assignment is gated by the authorization policy.
type Service struct {
	repo   RepositoryPort
	policy authz.Policy
	log    *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create registers a new account with the requested role.
func (s *Service) Create(ctx context.Context, p shared.Principal, username, password string, role shared.Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be USER or ADMIN", shared.ErrInvalidInput)
	}
	if !s.policy.CanAssignRole(p, role) {
		return nil, shared.ErrAccessDenied
	}

	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username already exists", shared.ErrDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := User{Username: username, Role: role, PasswordHash: string(hash)}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	s.log.Info("user created", slog.Int64("user_id", id), slog.String("role", string(role)))
	return &user, nil
}

// UpdateRole changes an account's role under the same assignment policy as
// creation.
func (s *Service) UpdateRole(ctx context.Context, p shared.Principal, userID int64, role shared.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role must be USER or ADMIN", shared.ErrInvalidInput)
	}
	if !s.policy.CanAssignRole(p, role) {
		return shared.ErrAccessDenied
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	s.log.Info("user role updated", slog.Int64("user_id", userID), slog.String("role", string(role)))
	return nil
}

// UpdatePassword replaces an account's password. Admin only.
func (s *Service) UpdatePassword(ctx context.Context, p shared.Principal, userID int64, password string) error {
	if !p.IsAdmin() {
		return shared.ErrAccessDenied
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.log.Info("user password updated", slog.Int64("user_id", userID))
	return nil
}

// Delete removes an account and, through the schema, its cards. Admin only.
func (s *Service) Delete(ctx context.Context, p shared.Principal, userID int64) error {
	if !p.IsAdmin() {
		return shared.ErrAccessDenied
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deleted", slog.Int64("user_id", userID))
	return nil
}

// List returns a page of accounts. Admin only.
func (s *Service) List(ctx context.Context, p shared.Principal, req ListRequest) ([]User, shared.Pagination, error) {
	if !p.IsAdmin() {
		return nil, shared.Pagination{}, shared.ErrAccessDenied
	}
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	list, total, err := s.repo.ListUsers(ctx, req.Username, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(req.Page, req.PerPage, total), nil
}
