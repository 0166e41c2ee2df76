package domain

import "time"

// Role enumerates operator roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFinanceiro Role = "financeiro"
	RoleUser       Role = "user"
)

// ParseRole validates a role token.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleFinanceiro, RoleUser:
		return Role(value), true
	}
	return "", false
}

// RoleSet is a closed set of roles used for authorization checks.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s[role]
	return ok
}

// User is an operator account. Accounts are never hard-deleted;
// deactivation flips IsActive.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	Role                Role
	IsTemporaryPassword bool
	IsActive            bool
	ProfileID           *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Profile holds the personal and contact data required before an
// account may perform business operations.
type Profile struct {
	ID        string
	UserID    string
	FullName  string
	Nickname  string
	BirthDate time.Time
	PixKey    string
	Whatsapp  string
	Email     string
	CreatedAt time.Time
}
