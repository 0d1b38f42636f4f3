package roles

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/rbac"
)

// Payload is the body accepted when creating or updating a role.
type Payload struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// Backend is the role administration surface of the RBAC service.
type Backend interface {
	Hierarchy() *rbac.Hierarchy
	ListRoles(ctx context.Context) ([]rbac.RoleWithPermissions, error)
	GetRole(ctx context.Context, id uuid.UUID) (rbac.RoleWithPermissions, error)
	CreateRole(ctx context.Context, name string, perms []string) (rbac.RoleWithPermissions, error)
	UpdateRole(ctx context.Context, id uuid.UUID, name string, perms []string) (rbac.RoleWithPermissions, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	GetPermissions(ctx context.Context, roleID uuid.UUID) ([]string, error)
}
