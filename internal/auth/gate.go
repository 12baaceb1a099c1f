// Package auth resolves caller identities from bearer tokens and decides
// whether an identity may invoke a role-restricted operation.
package auth

import (
	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

// AnyRole is the requirement for operations open to every signed-in caller.
const AnyRole models.Role = ""

type Identity struct {
	AccountID string
	Role      models.Role
}

// Authorize admits id when it is present and carries the required role.
// A nil identity is always rejected, even for AnyRole.
func Authorize(id *Identity, required models.Role) (Identity, error) {
	const op = "auth.Authorize"

	if id == nil || id.AccountID == "" || !id.Role.Valid() {
		return Identity{}, utils.E(utils.CodeUnauthorized, op, "authentication required", nil)
	}

	switch required {
	case AnyRole:
		return *id, nil
	case models.RoleApplicant, models.RoleRecruiter:
		if id.Role != required {
			return Identity{}, utils.E(utils.CodeForbidden, op, "requires role "+string(required), nil)
		}
		return *id, nil
	default:
		return Identity{}, utils.E(utils.CodeForbidden, op, "unknown role requirement", nil)
	}
}
