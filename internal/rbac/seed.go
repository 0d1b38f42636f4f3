package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// SeedReport describes what a seeding pass changed.
type SeedReport struct {
	RolesCreated []string
	ClaimsAdded  map[string][]string
}

// Drift returns how many permission claims had to be re-added.
func (r SeedReport) Drift() int {
	n := 0
	for _, added := range r.ClaimsAdded {
		n += len(added)
	}
	return n
}

// SeedError aggregates the per-role failures of a seeding pass.
type SeedError struct {
	Failures []error
}

func (e *SeedError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("rbac: seed failed for %d role(s): %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *SeedError) Unwrap() []error {
	return append([]error{shared.ErrSeed}, e.Failures...)
}

// Seed ensures every role of h exists and holds at least its effective permissions.
// Seeding is additive: existing claims are never removed. Roles are processed
// sequentially and independently; failures are collected into a *SeedError while
// the remaining roles are still seeded.
func (s *Service) Seed(ctx context.Context, h *Hierarchy) (SeedReport, error) {
	report := SeedReport{ClaimsAdded: make(map[string][]string)}
	var failures []error
	for _, name := range h.Roles() {
		if err := s.seedRole(ctx, name, h.EffectivePermissions(name), &report); err != nil {
			s.logger.Error("rbac seed role", slog.String("role", name), slog.Any("error", err))
			failures = append(failures, fmt.Errorf("role %q: %w", name, err))
		}
	}
	if len(failures) > 0 {
		return report, &SeedError{Failures: failures}
	}
	return report, nil
}

func (s *Service) seedRole(ctx context.Context, name string, perms []string, report *SeedReport) error {
	role, err := s.store.FindRoleByName(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		role, err = s.store.CreateRole(ctx, name)
		if err == nil {
			report.RolesCreated = append(report.RolesCreated, name)
		}
	}
	if err != nil {
		return err
	}

	claims, err := s.store.GetClaimsForRole(ctx, role.ID)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(claims))
	for _, p := range permissionValues(claims) {
		have[p] = struct{}{}
	}
	var added []string
	for _, p := range perms {
		if _, ok := have[p]; ok {
			continue
		}
		if err := s.store.AddClaim(ctx, role.ID, PermissionClaim(p)); err != nil {
			return err
		}
		added = append(added, p)
	}
	if len(added) > 0 {
		report.ClaimsAdded[name] = added
	}
	s.logger.Info("rbac seed role", slog.String("role", name), slog.Int("claims_added", len(added)))
	return nil
}
