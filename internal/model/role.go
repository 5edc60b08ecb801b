// Package model holds the domain types shared by the repository, handler
// and middleware layers. Enumerated values are closed string types with a
// Parse function each; raw strings from the outside world never flow past
// the parse step.
package model

import "fmt"

// Role is the access level of a user. The set is closed: USER or ADMIN.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole validates a raw role string against the closed set. Matching
// is exact; lower- or mixed-case input is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// Principal is the verified identity of a request. It is resolved once in
// the auth middleware from the access token claims; handlers never parse
// claims themselves.
type Principal struct {
	UserID uint64
	Role   Role
}

// CanActFor reports whether the principal may mutate a resource owned by
// ownerID. Owners act on their own resources; admins act on anything.
func (p Principal) CanActFor(ownerID uint64) bool {
	return p.UserID == ownerID || p.Role == RoleAdmin
}
