package authz

import "github.com/cardmint/cardmint/internal/shared"

// Policy holds the pure authorization predicates for card and user
// operations. Services consult the relevant predicate before any mutation;
// a false answer means the operation fails without side effects. The
// predicates have no dependencies and no ambient state, so they are
// testable with plain values.
type Policy struct{}

// CanViewBalance allows only the card owner to read its balance.
func (Policy) CanViewBalance(p shared.Principal, ownerUsername string) bool {
	return p.Username == ownerUsername
}

// CanBlock allows the card owner or an admin to block a card.
func (Policy) CanBlock(p shared.Principal, ownerUsername string) bool {
	return p.Username == ownerUsername || p.IsAdmin()
}

// CanActivate allows only admins to activate cards.
func (Policy) CanActivate(p shared.Principal) bool {
	return p.IsAdmin()
}

// CanDelete allows only admins to delete cards.
func (Policy) CanDelete(p shared.Principal) bool {
	return p.IsAdmin()
}

// CanAssignRole allows anyone to hand out USER; ADMIN may be assigned only
// by an admin. Unknown role values are rejected by callers as invalid input
// before the policy is consulted.
func (Policy) CanAssignRole(p shared.Principal, target shared.Role) bool {
	switch target {
	case shared.RoleUser:
		return true
	case shared.RoleAdmin:
		return p.IsAdmin()
	default:
		return false
	}
}
