package auth

import (
	"fmt"

	"github.com/dmitrijs2005/appli/internal/common"
)

// RoleEnforcer decides whether a Principal may perform a role-gated
// operation.
//
// The decision uses only the role embedded in the access token. A role
// changed in the database is picked up at the next login, so a demoted admin
// keeps admin access until their current token expires.
type RoleEnforcer struct{}

func NewRoleEnforcer() *RoleEnforcer {
	return &RoleEnforcer{}
}

// Require returns common.ErrForbidden unless p holds exactly the required
// role (after trimming and lower-casing p's role).
func (RoleEnforcer) Require(p Principal, role Role) error {
	if p.Role.Normalize() != role {
		return fmt.Errorf("%w: requires role %q", common.ErrForbidden, role)
	}
	return nil
}
