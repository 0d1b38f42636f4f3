package rbac

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// MemoryStore is an in-process Store used for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[uuid.UUID]User
	userRoles map[uuid.UUID][]uuid.UUID
	roles     map[uuid.UUID]Role
	byName    map[string]uuid.UUID
	claims    map[uuid.UUID][]Claim
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       func() time.Time { return time.Now().UTC() },
		users:     make(map[uuid.UUID]User),
		userRoles: make(map[uuid.UUID][]uuid.UUID),
		roles:     make(map[uuid.UUID]Role),
		byName:    make(map[string]uuid.UUID),
		claims:    make(map[uuid.UUID][]Claim),
	}
}

// PutUser inserts or replaces a user account.
func (m *MemoryStore) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// ListUsers returns users ordered by name.
func (m *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("rbac: user %s: %w", id, shared.ErrNotFound)
	}
	return u, nil
}

func (m *MemoryStore) GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("rbac: user %s: %w", userID, shared.ErrNotFound)
	}
	ids := m.userRoles[userID]
	out := make([]Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return fmt.Errorf("rbac: user %s: %w", userID, shared.ErrNotFound)
	}
	for _, id := range roleIDs {
		if _, ok := m.roles[id]; !ok {
			return fmt.Errorf("rbac: role %s: %w", id, shared.ErrNotFound)
		}
	}
	m.userRoles[userID] = append([]uuid.UUID(nil), roleIDs...)
	return nil
}

func (m *MemoryStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[m.key(name)]
	if !ok || m.roles[id].Name != name {
		return Role{}, fmt.Errorf("rbac: role %q: %w", name, shared.ErrNotFound)
	}
	return m.roles[id], nil
}

func (m *MemoryStore) FindRoleByID(ctx context.Context, id uuid.UUID) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("rbac: role %s: %w", id, shared.ErrNotFound)
	}
	return r, nil
}

func (m *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) CreateRole(ctx context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(name)
	if _, exists := m.byName[key]; exists {
		return Role{}, fmt.Errorf("rbac: role %q: %w", name, shared.ErrDuplicate)
	}
	now := m.now()
	r := Role{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	m.roles[r.ID] = r
	m.byName[key] = r.ID
	return r, nil
}

func (m *MemoryStore) UpdateRole(ctx context.Context, id uuid.UUID, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("rbac: role %s: %w", id, shared.ErrNotFound)
	}
	key := m.key(name)
	if other, exists := m.byName[key]; exists && other != id {
		return Role{}, fmt.Errorf("rbac: role %q: %w", name, shared.ErrDuplicate)
	}
	delete(m.byName, m.key(r.Name))
	r.Name = name
	r.UpdatedAt = m.now()
	m.roles[id] = r
	m.byName[key] = id
	return r, nil
}

func (m *MemoryStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return fmt.Errorf("rbac: role %s: %w", id, shared.ErrNotFound)
	}
	delete(m.roles, id)
	delete(m.byName, m.key(r.Name))
	delete(m.claims, id)
	for userID, ids := range m.userRoles {
		kept := ids[:0]
		for _, rid := range ids {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		m.userRoles[userID] = kept
	}
	return nil
}

func (m *MemoryStore) GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.roles[roleID]; !ok {
		return nil, fmt.Errorf("rbac: role %s: %w", roleID, shared.ErrNotFound)
	}
	return append([]Claim(nil), m.claims[roleID]...), nil
}

// AddClaim attaches claim to the role; adding an existing claim is a no-op.
func (m *MemoryStore) AddClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return fmt.Errorf("rbac: role %s: %w", roleID, shared.ErrNotFound)
	}
	for _, c := range m.claims[roleID] {
		if c == claim {
			return nil
		}
	}
	m.claims[roleID] = append(m.claims[roleID], claim)
	return nil
}

// RemoveClaim detaches claim from the role; removing a missing claim is a no-op.
func (m *MemoryStore) RemoveClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return fmt.Errorf("rbac: role %s: %w", roleID, shared.ErrNotFound)
	}
	claims := m.claims[roleID]
	for i, c := range claims {
		if c == claim {
			m.claims[roleID] = append(claims[:i:i], claims[i+1:]...)
			return nil
		}
	}
	return nil
}

// key folds name for case-insensitive lookups. Casers are stateful, so each call gets its own.
func (m *MemoryStore) key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

var _ Store = (*MemoryStore)(nil)
