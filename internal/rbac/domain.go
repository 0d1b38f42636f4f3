package rbac

import (
	"time"

	"github.com/google/uuid"
)

// ClaimTypePermission marks a role claim that grants a permission.
const ClaimTypePermission = "permission"

// Role represents a high-level permission grouping. Its rank comes from the Hierarchy.
type Role struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Claim is a single (type, value) fact attached to a role.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// PermissionClaim builds the claim granting perm.
func PermissionClaim(perm string) Claim {
	return Claim{Type: ClaimTypePermission, Value: perm}
}

// User is an account as seen by the access-control core.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email,omitempty"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// RoleWithPermissions pairs a role with its current permission claims.
type RoleWithPermissions struct {
	Role
	Permissions []string `json:"permissions"`
}
