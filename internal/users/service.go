package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gamestore/gamestore-admin/internal/platform/httpx"
	"github.com/gamestore/gamestore-admin/internal/rbac"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
}

// RoleAssigner reads and replaces role memberships.
type RoleAssigner interface {
	Hierarchy() *rbac.Hierarchy
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error
}

// Service handles user business logic.
type Service struct {
	repo      RepositoryPort
	roles     RoleAssigner
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleAssigner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, validator: httpx.NewValidator(), logger: logger}
}

// ListUsers returns one page of users with their role names.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) (Page, error) {
	meta := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.ListUsers(ctx, meta.PerPage, meta.Offset())
	if err != nil {
		return Page{}, err
	}
	for i := range users {
		if users[i].Roles, err = s.roles.RolesForUser(ctx, users[i].ID); err != nil {
			return Page{}, err
		}
	}
	return Page{Users: users, Pagination: shared.NewPagination(meta.Page, meta.PerPage, total)}, nil
}

// GetUser returns a single user with role names.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if user.Roles, err = s.roles.RolesForUser(ctx, id); err != nil {
		return User{}, err
	}
	return user, nil
}

// SetRoles replaces the roles of userID on behalf of actor. The actor may not
// grant a role ranked above its own highest role, may not modify a user who
// outranks it, and may only grant roles outside the hierarchy when it holds
// the top role.
func (s *Service) SetRoles(ctx context.Context, actor *shared.Identity, userID uuid.UUID, p RolesPayload) (User, error) {
	if err := s.validator.Struct(p); err != nil {
		return User{}, httpx.FieldErrors(err)
	}
	if actor == nil {
		return User{}, shared.ErrUnauthorized
	}
	actorID, err := uuid.Parse(actor.Subject)
	if err != nil {
		return User{}, shared.ErrUnauthorized
	}
	target, err := s.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	actorRoles, err := s.roles.RolesForUser(ctx, actorID)
	if err != nil {
		return User{}, err
	}
	if err := s.checkRank(actorRoles, target.Roles, p.Roles); err != nil {
		s.logger.Warn("user role assignment refused",
			slog.String("actor", actor.Subject), slog.String("user", userID.String()), slog.Any("error", err))
		return User{}, err
	}
	if err := s.roles.SetUserRoles(ctx, userID, p.Roles); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, shared.NewValidationError("roles", "unknown role")
		}
		return User{}, err
	}
	s.logger.Info("user roles replaced", slog.String("actor", actor.Subject), slog.String("user", userID.String()), slog.Any("roles", p.Roles))
	return s.GetUser(ctx, userID)
}

func (s *Service) checkRank(actorRoles, currentRoles, granted []string) error {
	h := s.roles.Hierarchy()
	highest, ok := h.HighestRole(actorRoles)
	if !ok {
		return fmt.Errorf("%w: caller holds no ranked role", shared.ErrForbidden)
	}
	order := h.Roles()
	top := order[len(order)-1]
	if current, ok := h.HighestRole(currentRoles); ok && h.IsHigherRank(current, highest) {
		return fmt.Errorf("%w: user outranks caller", shared.ErrForbidden)
	}
	for _, role := range granted {
		if _, ranked := h.Rank(role); !ranked {
			if highest != top {
				return fmt.Errorf("%w: role %q is outside the hierarchy", shared.ErrForbidden, role)
			}
			continue
		}
		if h.IsHigherRank(role, highest) {
			return fmt.Errorf("%w: role %q outranks caller", shared.ErrForbidden, role)
		}
	}
	return nil
}
