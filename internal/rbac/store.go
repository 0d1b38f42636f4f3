package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Store is the user/role persistence port consumed by the access-control core.
// Implementations return shared.ErrNotFound for missing records and
// shared.ErrDuplicate for role names that collide case-insensitively.
type Store interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error

	FindRoleByName(ctx context.Context, name string) (Role, error)
	FindRoleByID(ctx context.Context, id uuid.UUID) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, name string) (Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error

	GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error)
	AddClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error
	RemoveClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error
}
