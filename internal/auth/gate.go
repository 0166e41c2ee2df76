package auth

import (
	"github.com/stelaryous/ticketflow/internal/domain"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// Requirement describes what a protected operation demands from the
// caller. An empty role set means any authenticated role.
type Requirement struct {
	Roles          domain.RoleSet
	RequireProfile bool
	// AllowTemporary lets routes such as password change through for
	// accounts still on their provisional password.
	AllowTemporary bool
}

// Authorize is the single decision point every business operation
// funnels through. It evaluates over supplied state only; callers fetch
// the principal and profile flag. Checks short-circuit in order:
// resolvable, active, provisional credential, role, profile.
func Authorize(user *domain.User, hasProfile bool, req Requirement) error {
	if user == nil {
		return apperrors.NewUnauthorized("user not found")
	}
	if !user.IsActive {
		return apperrors.NewForbidden("user inactive")
	}
	if user.IsTemporaryPassword && !req.AllowTemporary {
		return apperrors.NewForbidden("temporary password must be changed first")
	}
	if len(req.Roles) > 0 && !req.Roles.Contains(user.Role) {
		return apperrors.NewForbidden("insufficient role")
	}
	if req.RequireProfile && !hasProfile {
		return apperrors.NewForbidden("profile must be completed first")
	}
	return nil
}
