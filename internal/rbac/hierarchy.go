package rbac

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Role names in ascending rank.
const (
	RoleGuest     = "Guest"
	RoleUser      = "User"
	RoleModerator = "Moderator"
	RoleManager   = "Manager"
	RoleAdmin     = "Admin"
)

// DefaultRoleOrder lists the built-in roles from lowest to highest rank.
func DefaultRoleOrder() []string {
	return []string{RoleGuest, RoleUser, RoleModerator, RoleManager, RoleAdmin}
}

// DefaultBaseSets returns the permissions each built-in role introduces at its rank.
func DefaultBaseSets() map[string][]string {
	return map[string][]string{
		RoleGuest: {
			shared.PermViewGame,
			shared.PermViewGenre,
			shared.PermViewPublisher,
			shared.PermViewPlatform,
		},
		RoleUser: {
			shared.PermCommentOnGames,
			shared.PermBuyGame,
			shared.PermViewOrderHistory,
		},
		RoleModerator: {
			shared.PermManageComments,
			shared.PermBanUsers,
		},
		RoleManager: {
			shared.PermViewDeletedGame,
			shared.PermAddGame,
			shared.PermUpdateGame,
			shared.PermDeleteGame,
			shared.PermAddGenre,
			shared.PermUpdateGenre,
			shared.PermDeleteGenre,
			shared.PermAddPublisher,
			shared.PermUpdatePublisher,
			shared.PermDeletePublisher,
			shared.PermAddPlatform,
			shared.PermUpdatePlatform,
			shared.PermDeletePlatform,
			shared.PermViewOrders,
			shared.PermEditOrders,
			shared.PermShipOrders,
		},
		RoleAdmin: {
			shared.PermViewUsers,
			shared.PermAddUser,
			shared.PermUpdateUser,
			shared.PermDeleteUser,
			shared.PermManageUsers,
			shared.PermViewRoles,
			shared.PermAddRole,
			shared.PermUpdateRole,
			shared.PermDeleteRole,
			shared.PermManageRoles,
		},
	}
}

// Hierarchy is a total order over roles with precomputed effective permission sets.
// It is immutable after construction and safe for concurrent use.
type Hierarchy struct {
	order     []string
	rank      map[string]int
	effective map[string][]string
	logger    *slog.Logger
}

// NewHierarchy computes the effective permission set of every role in order
// (lowest rank first). Base sets for names outside order are ignored.
func NewHierarchy(order []string, base map[string][]string, logger *slog.Logger) (*Hierarchy, error) {
	h := &Hierarchy{
		order:     make([]string, 0, len(order)),
		rank:      make(map[string]int, len(order)),
		effective: make(map[string][]string, len(order)),
		logger:    logger,
	}
	var (
		acc  []string
		seen = make(map[string]struct{})
	)
	for i, name := range order {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("rbac: hierarchy position %d: empty role name", i)
		}
		if _, dup := h.rank[name]; dup {
			return nil, fmt.Errorf("rbac: hierarchy: duplicate role %q", name)
		}
		h.rank[name] = i
		h.order = append(h.order, name)
		for _, p := range base[name] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			acc = append(acc, p)
		}
		h.effective[name] = append([]string(nil), acc...)
	}
	return h, nil
}

// DefaultHierarchy builds the Guest < User < Moderator < Manager < Admin hierarchy.
func DefaultHierarchy(logger *slog.Logger) *Hierarchy {
	h, err := NewHierarchy(DefaultRoleOrder(), DefaultBaseSets(), logger)
	if err != nil {
		panic(err)
	}
	return h
}

// Roles returns role names from lowest to highest rank.
func (h *Hierarchy) Roles() []string {
	return append([]string(nil), h.order...)
}

// Rank returns the position of role in the hierarchy.
func (h *Hierarchy) Rank(role string) (int, bool) {
	r, ok := h.rank[role]
	return r, ok
}

// EffectivePermissions returns the union of base sets of role and every lower rank.
// Unknown roles have no permissions.
func (h *Hierarchy) EffectivePermissions(role string) []string {
	return append([]string(nil), h.effective[role]...)
}

// IsHigherRank reports whether a outranks b. Any comparison involving a role
// outside the hierarchy is false and logged as an anomaly.
func (h *Hierarchy) IsHigherRank(a, b string) bool {
	ra, aok := h.rank[a]
	rb, bok := h.rank[b]
	if !aok || !bok {
		if h.logger != nil {
			h.logger.Warn("rbac rank comparison with unknown role",
				slog.String("role_a", a), slog.String("role_b", b),
				slog.Bool("a_known", aok), slog.Bool("b_known", bok))
		}
		return false
	}
	return ra > rb
}

// HighestRole returns the highest ranked known role among roles.
func (h *Hierarchy) HighestRole(roles []string) (string, bool) {
	best, bestRank := "", -1
	for _, r := range roles {
		if rank, ok := h.rank[r]; ok && rank > bestRank {
			best, bestRank = r, rank
		}
	}
	return best, bestRank >= 0
}
