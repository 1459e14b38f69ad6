package users

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardmint/cardmint/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	byName map[string]int64
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[int64]*User),
		byName: make(map[string]int64),
		nextID: 1,
	}
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	id, ok := m.byName[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *m.users[id]
	return &clone, nil
}

func (m *mockRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.byName[username]
	return ok, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	if _, ok := m.byName[user.Username]; ok {
		return 0, shared.ErrDuplicate
	}
	id := m.nextID
	m.nextID++
	user.ID = id
	m.users[id] = &user
	m.byName[user.Username] = id
	return id, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, role shared.Role) error {
	user, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	user.Role = role
	return nil
}

func (m *mockRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	user, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (m *mockRepository) DeleteUser(ctx context.Context, id int64) error {
	user, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.byName, user.Username)
	delete(m.users, id)
	return nil
}

func (m *mockRepository) ListUsers(ctx context.Context, usernameFilter string, page shared.Pagination) ([]User, int, error) {
	var out []User
	for _, user := range m.users {
		if usernameFilter != "" && !strings.Contains(user.Username, usernameFilter) {
			continue
		}
		out = append(out, *user)
	}
	return out, len(out), nil
}

var (
	someUser = shared.Principal{Username: "alice", Role: shared.RoleUser}
	admin    = shared.Principal{Username: "root", Role: shared.RoleAdmin}
)

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, log), repo
}

func TestCreateHashesPassword(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	stored, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.Role("ROOT"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateAdminRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), someUser, "eve", "s3cret-pass", shared.RoleAdmin)
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Create(context.Background(), admin, "eve", "s3cret-pass", shared.RoleAdmin)
	assert.NoError(t, err)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.RoleUser)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin, "alice", "other-pass99", shared.RoleUser)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateRole(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.RoleUser)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateRole(context.Background(), someUser, user.ID, shared.RoleAdmin), shared.ErrAccessDenied)

	require.NoError(t, svc.UpdateRole(context.Background(), admin, user.ID, shared.RoleAdmin))
	stored, err := repo.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, stored.Role)

	assert.ErrorIs(t, svc.UpdateRole(context.Background(), admin, 999, shared.RoleUser), shared.ErrNotFound)
}

func TestUpdatePasswordAdminOnly(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.RoleUser)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePassword(context.Background(), someUser, user.ID, "new-password"), shared.ErrAccessDenied)

	require.NoError(t, svc.UpdatePassword(context.Background(), admin, user.ID, "new-password"))
	stored, err := repo.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))
}

func TestDeleteAdminOnly(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), admin, "alice", "s3cret-pass", shared.RoleUser)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), someUser, user.ID), shared.ErrAccessDenied)
	require.NoError(t, svc.Delete(context.Background(), admin, user.ID))

	_, err = repo.GetUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListAdminOnlyWithFilter(t *testing.T) {
	svc, _ := newTestService()
	for _, name := range []string{"alice", "alicia", "bob"} {
		_, err := svc.Create(context.Background(), admin, name, "s3cret-pass", shared.RoleUser)
		require.NoError(t, err)
	}

	_, _, err := svc.List(context.Background(), someUser, ListRequest{Page: 1, PerPage: 10})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	all, page, err := svc.List(context.Background(), admin, ListRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, page.Total)

	filtered, _, err := svc.List(context.Background(), admin, ListRequest{Username: "alic", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}
