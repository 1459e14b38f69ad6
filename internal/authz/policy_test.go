package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardmint/cardmint/internal/shared"
)

var (
	owner    = shared.Principal{Username: "alice", Role: shared.RoleUser}
	stranger = shared.Principal{Username: "bob", Role: shared.RoleUser}
	admin    = shared.Principal{Username: "root", Role: shared.RoleAdmin}
)

func TestCanViewBalance(t *testing.T) {
	var p Policy
	assert.True(t, p.CanViewBalance(owner, "alice"))
	assert.False(t, p.CanViewBalance(stranger, "alice"))
	assert.False(t, p.CanViewBalance(admin, "alice"), "admins manage cards, they do not read balances")
}

func TestCanBlock(t *testing.T) {
	var p Policy
	assert.True(t, p.CanBlock(owner, "alice"))
	assert.True(t, p.CanBlock(admin, "alice"))
	assert.False(t, p.CanBlock(stranger, "alice"))
}

func TestCanActivateAndDelete(t *testing.T) {
	var p Policy
	assert.True(t, p.CanActivate(admin))
	assert.False(t, p.CanActivate(owner))
	assert.True(t, p.CanDelete(admin))
	assert.False(t, p.CanDelete(owner))
}

func TestCanAssignRole(t *testing.T) {
	var p Policy
	assert.True(t, p.CanAssignRole(owner, shared.RoleUser))
	assert.True(t, p.CanAssignRole(admin, shared.RoleUser))
	assert.True(t, p.CanAssignRole(admin, shared.RoleAdmin))
	assert.False(t, p.CanAssignRole(owner, shared.RoleAdmin))
	assert.False(t, p.CanAssignRole(admin, shared.Role("ROOT")))
}
