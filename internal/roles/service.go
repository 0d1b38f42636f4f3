package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/platform/httpx"
	"github.com/gamestore/gamestore-admin/internal/rbac"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Service validates role administration requests before handing them to RBAC.
// Roles that belong to the hierarchy keep their names and cannot be deleted.
type Service struct {
	backend   Backend
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, validator: httpx.NewValidator(), logger: logger}
}

// ListRoles returns all roles with their permissions, lowest rank first.
func (s *Service) ListRoles(ctx context.Context) ([]rbac.RoleWithPermissions, error) {
	return s.backend.ListRoles(ctx)
}

// GetRole returns a single role.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (rbac.RoleWithPermissions, error) {
	return s.backend.GetRole(ctx, id)
}

// Permissions returns the permissions currently attached to a role.
func (s *Service) Permissions(ctx context.Context, id uuid.UUID) ([]string, error) {
	if _, err := s.backend.GetRole(ctx, id); err != nil {
		return nil, err
	}
	return s.backend.GetPermissions(ctx, id)
}

// CreateRole validates p and creates the role.
func (s *Service) CreateRole(ctx context.Context, p Payload) (rbac.RoleWithPermissions, error) {
	if err := s.validate(&p); err != nil {
		return rbac.RoleWithPermissions{}, err
	}
	role, err := s.backend.CreateRole(ctx, p.Name, p.Permissions)
	if err != nil {
		return rbac.RoleWithPermissions{}, err
	}
	s.logger.Info("role created", slog.String("role", role.Name), slog.Int("permissions", len(role.Permissions)))
	return role, nil
}

// UpdateRole validates p and replaces the role's name and permission set.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, p Payload) (rbac.RoleWithPermissions, error) {
	if err := s.validate(&p); err != nil {
		return rbac.RoleWithPermissions{}, err
	}
	current, err := s.backend.GetRole(ctx, id)
	if err != nil {
		return rbac.RoleWithPermissions{}, err
	}
	if s.builtIn(current.Name) && current.Name != p.Name {
		return rbac.RoleWithPermissions{}, shared.NewValidationError("name", "built-in roles cannot be renamed")
	}
	role, err := s.backend.UpdateRole(ctx, id, p.Name, p.Permissions)
	if err != nil {
		return rbac.RoleWithPermissions{}, err
	}
	s.logger.Info("role updated", slog.String("role", role.Name), slog.Int("permissions", len(role.Permissions)))
	return role, nil
}

// DeleteRole removes a role that is not part of the hierarchy.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	current, err := s.backend.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if s.builtIn(current.Name) {
		return shared.NewValidationError("id", "built-in roles cannot be deleted")
	}
	if err := s.backend.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.logger.Info("role deleted", slog.String("role", current.Name))
	return nil
}

func (s *Service) validate(p *Payload) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := s.validator.Struct(p); err != nil {
		return httpx.FieldErrors(err)
	}
	var unknown []string
	for _, perm := range p.Permissions {
		if !shared.IsKnownPermission(perm) {
			unknown = append(unknown, perm)
		}
	}
	if len(unknown) > 0 {
		return shared.NewValidationError("permissions", fmt.Sprintf("unknown permission(s): %s", strings.Join(unknown, ", ")))
	}
	return nil
}

func (s *Service) builtIn(name string) bool {
	_, ok := s.backend.Hierarchy().Rank(name)
	return ok
}
