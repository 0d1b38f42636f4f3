package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Service orchestrates RBAC operations over a Store. It is the single
// role→permission resolution shared by credential issuance and access evaluation.
type Service struct {
	store     Store
	hierarchy *Hierarchy
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, hierarchy *Hierarchy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, hierarchy: hierarchy, logger: logger}
}

// Hierarchy returns the role hierarchy the service was built with.
func (s *Service) Hierarchy() *Hierarchy {
	return s.hierarchy
}

// ListRoles returns all roles with their permissions, ordered by rank then name.
func (s *Service) ListRoles(ctx context.Context) ([]RoleWithPermissions, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	s.sortRoles(roles)
	out := make([]RoleWithPermissions, 0, len(roles))
	for _, r := range roles {
		perms, err := s.GetPermissions(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RoleWithPermissions{Role: r, Permissions: perms})
	}
	return out, nil
}

// GetRole fetches a role by ID together with its permissions.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (RoleWithPermissions, error) {
	role, err := s.store.FindRoleByID(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	perms, err := s.GetPermissions(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return RoleWithPermissions{Role: role, Permissions: perms}, nil
}

// CreateRole inserts a new role holding exactly perms.
func (s *Service) CreateRole(ctx context.Context, name string, perms []string) (RoleWithPermissions, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleWithPermissions{}, shared.NewValidationError("name", "role name required")
	}
	role, err := s.store.CreateRole(ctx, name)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	if err := s.SetPermissions(ctx, role.ID, perms); err != nil {
		return RoleWithPermissions{}, err
	}
	return s.GetRole(ctx, role.ID)
}

// UpdateRole renames a role (when name is non-empty) and replaces its permissions.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, name string, perms []string) (RoleWithPermissions, error) {
	role, err := s.store.FindRoleByID(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	if name = strings.TrimSpace(name); name != "" && name != role.Name {
		if _, err := s.store.UpdateRole(ctx, id, name); err != nil {
			return RoleWithPermissions{}, err
		}
	}
	if err := s.SetPermissions(ctx, id, perms); err != nil {
		return RoleWithPermissions{}, err
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role by ID. Returns shared.ErrNotFound if nothing was deleted.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteRole(ctx, id)
}

// GetPermissions returns the permission claims currently attached to a role.
func (s *Service) GetPermissions(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	claims, err := s.store.GetClaimsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	perms := permissionValues(claims)
	shared.SortPermissions(perms)
	return perms, nil
}

// SetPermissions replaces the full permission set of a role: every existing
// permission claim is removed, then perms are added.
func (s *Service) SetPermissions(ctx context.Context, roleID uuid.UUID, perms []string) error {
	claims, err := s.store.GetClaimsForRole(ctx, roleID)
	if err != nil {
		return err
	}
	for _, c := range claims {
		if c.Type != ClaimTypePermission {
			continue
		}
		if err := s.store.RemoveClaim(ctx, roleID, c); err != nil {
			return fmt.Errorf("rbac: remove %s from role %s: %w", c.Value, roleID, err)
		}
	}
	for _, p := range dedupe(perms) {
		if err := s.store.AddClaim(ctx, roleID, PermissionClaim(p)); err != nil {
			return fmt.Errorf("rbac: add %s to role %s: %w", p, roleID, err)
		}
	}
	return nil
}

// RolesForUser returns the names of the roles assigned to a user, lowest rank first.
func (s *Service) RolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	roles, err := s.userRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return roleNames(roles), nil
}

// PermissionsForRoles unions the stored permission claims of the named roles.
// Roles missing from the store contribute nothing.
func (s *Service) PermissionsForRoles(ctx context.Context, names []string) ([]string, error) {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		role, err := s.store.FindRoleByName(ctx, name)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("rbac role not found, granting nothing", slog.String("role", name))
				continue
			}
			return nil, err
		}
		roles = append(roles, role)
	}
	return s.rolePermissions(ctx, roles)
}

// ResolveRoles returns a user's role names and the union of their permissions,
// reading claims by the role IDs the membership lookup already returned.
func (s *Service) ResolveRoles(ctx context.Context, userID uuid.UUID) ([]string, []string, error) {
	roles, err := s.userRoles(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := s.rolePermissions(ctx, roles)
	if err != nil {
		return nil, nil, err
	}
	return roleNames(roles), perms, nil
}

// UserPermissions returns the deduplicated permission names of a user.
// Inactive users hold no permissions.
func (s *Service) UserPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	_, perms, err := s.ResolveRoles(ctx, userID)
	return perms, err
}

func (s *Service) userRoles(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	roles, err := s.store.GetRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.sortRoles(roles)
	return roles, nil
}

func (s *Service) rolePermissions(ctx context.Context, roles []Role) ([]string, error) {
	seen := make(map[string]struct{})
	var perms []string
	for _, role := range roles {
		claims, err := s.store.GetClaimsForRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range permissionValues(claims) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	shared.SortPermissions(perms)
	return perms, nil
}

func roleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

// SetUserRoles replaces the role memberships of a user.
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error {
	ids := make([]uuid.UUID, 0, len(roleNames))
	for _, name := range dedupe(roleNames) {
		role, err := s.store.FindRoleByName(ctx, name)
		if err != nil {
			return err
		}
		ids = append(ids, role.ID)
	}
	return s.store.SetUserRoles(ctx, userID, ids)
}

func (s *Service) sortRoles(roles []Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		ri, iok := s.hierarchy.Rank(roles[i].Name)
		rj, jok := s.hierarchy.Rank(roles[j].Name)
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return roles[i].Name < roles[j].Name
		}
	})
}

func permissionValues(claims []Claim) []string {
	perms := make([]string, 0, len(claims))
	for _, c := range claims {
		if c.Type == ClaimTypePermission {
			perms = append(perms, c.Value)
		}
	}
	return perms
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
