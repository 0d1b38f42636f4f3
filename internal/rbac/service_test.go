package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

func TestSeedCreatesRolesWithEffectivePermissions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	h := DefaultHierarchy(discardLogger())
	svc := NewService(store, h, discardLogger())

	report, err := svc.Seed(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoleOrder(), report.RolesCreated)

	for _, name := range h.Roles() {
		role, err := store.FindRoleByName(ctx, name)
		require.NoError(t, err)
		perms, err := svc.GetPermissions(ctx, role.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, h.EffectivePermissions(name), perms, "role %s", name)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	before := snapshotPermissions(t, f)
	report, err := f.service.Seed(ctx, f.hierarchy)
	require.NoError(t, err)

	assert.Empty(t, report.RolesCreated)
	assert.Zero(t, report.Drift())
	assert.Equal(t, before, snapshotPermissions(t, f))
}

func TestSeedKeepsManuallyGrantedPermissions(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	guest, err := f.store.FindRoleByName(ctx, RoleGuest)
	require.NoError(t, err)
	require.NoError(t, f.store.AddClaim(ctx, guest.ID, PermissionClaim(shared.PermViewOrders)))

	_, err = f.service.Seed(ctx, f.hierarchy)
	require.NoError(t, err)

	perms, err := f.service.GetPermissions(ctx, guest.ID)
	require.NoError(t, err)
	assert.Contains(t, perms, shared.PermViewOrders)
}

func TestSeedRestoresRevokedBasePermissions(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	manager, err := f.store.FindRoleByName(ctx, RoleManager)
	require.NoError(t, err)
	require.NoError(t, f.store.RemoveClaim(ctx, manager.ID, PermissionClaim(shared.PermEditOrders)))

	report, err := f.service.Seed(ctx, f.hierarchy)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drift())
	assert.Equal(t, []string{shared.PermEditOrders}, report.ClaimsAdded[RoleManager])
}

func TestSeedAggregatesFailuresWithoutRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := store.CreateRole(ctx, "admin")
	require.NoError(t, err)
	_, err = store.CreateRole(ctx, "MODERATOR")
	require.NoError(t, err)

	h := DefaultHierarchy(discardLogger())
	svc := NewService(store, h, discardLogger())
	report, err := svc.Seed(ctx, h)
	require.Error(t, err)

	var seedErr *SeedError
	require.True(t, errors.As(err, &seedErr))
	assert.Len(t, seedErr.Failures, 2)
	assert.ErrorIs(t, err, shared.ErrSeed)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
	assert.Contains(t, err.Error(), `"Admin"`)
	assert.Contains(t, err.Error(), `"Moderator"`)

	assert.ElementsMatch(t, []string{RoleGuest, RoleUser, RoleManager}, report.RolesCreated)
	manager, err := store.FindRoleByName(ctx, RoleManager)
	require.NoError(t, err)
	perms, err := svc.GetPermissions(ctx, manager.ID)
	require.NoError(t, err)
	assert.Contains(t, perms, shared.PermUpdateGame)
}

func TestSetPermissionsReplaces(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	moderator, err := f.store.FindRoleByName(ctx, RoleModerator)
	require.NoError(t, err)

	want := []string{shared.PermViewGame, shared.PermManageComments}
	require.NoError(t, f.service.SetPermissions(ctx, moderator.ID, append(want, shared.PermViewGame)))

	got, err := f.service.GetPermissions(ctx, moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, f.service.SetPermissions(ctx, moderator.ID, nil))
	got, err = f.service.GetPermissions(ctx, moderator.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetPermissionsKeepsNonPermissionClaims(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	user, err := f.store.FindRoleByName(ctx, RoleUser)
	require.NoError(t, err)
	other := Claim{Type: "region", Value: "eu"}
	require.NoError(t, f.store.AddClaim(ctx, user.ID, other))

	require.NoError(t, f.service.SetPermissions(ctx, user.ID, []string{shared.PermBuyGame}))
	claims, err := f.store.GetClaimsForRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, claims, other)
}

func TestSetPermissionsUnknownRole(t *testing.T) {
	f := newSeededFixture(t)
	err := f.service.SetPermissions(context.Background(), uuid.New(), []string{shared.PermViewGame})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPermissionsForRolesManager(t *testing.T) {
	f := newSeededFixture(t)
	perms, err := f.service.PermissionsForRoles(context.Background(), []string{RoleManager})
	require.NoError(t, err)

	assert.Contains(t, perms, shared.PermUpdateGame)
	assert.Contains(t, perms, shared.PermEditOrders)
	assert.NotContains(t, perms, shared.PermManageUsers)
}

func TestPermissionsForRolesUnionsAndSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	extra, err := f.service.CreateRole(ctx, "Support", []string{shared.PermViewOrders})
	require.NoError(t, err)

	perms, err := f.service.PermissionsForRoles(ctx, []string{RoleGuest, extra.Name, "Ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		shared.PermViewGame, shared.PermViewGenre, shared.PermViewPublisher,
		shared.PermViewPlatform, shared.PermViewOrders,
	}, perms)
}

func TestUserPermissionsInactiveUserHoldsNothing(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)
	id := f.addUser(t, "sleepy", RoleAdmin)

	u, err := f.store.FindUserByID(ctx, id)
	require.NoError(t, err)
	u.IsActive = false
	f.store.PutUser(u)

	perms, err := f.service.UserPermissions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestRolesForUserOrderedByRank(t *testing.T) {
	f := newSeededFixture(t)
	id := f.addUser(t, "multi", RoleAdmin, RoleGuest, RoleModerator)

	roles, err := f.service.RolesForUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleGuest, RoleModerator, RoleAdmin}, roles)
}

func TestCreateUpdateDeleteRole(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)

	created, err := f.service.CreateRole(ctx, "  Support ", []string{shared.PermViewOrders})
	require.NoError(t, err)
	assert.Equal(t, "Support", created.Name)
	assert.Equal(t, []string{shared.PermViewOrders}, created.Permissions)

	_, err = f.service.CreateRole(ctx, "support", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = f.service.CreateRole(ctx, " ", nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	updated, err := f.service.UpdateRole(ctx, created.ID, "Helpdesk", []string{shared.PermShipOrders, shared.PermViewOrders})
	require.NoError(t, err)
	assert.Equal(t, "Helpdesk", updated.Name)
	assert.Equal(t, []string{shared.PermViewOrders, shared.PermShipOrders}, updated.Permissions)

	require.NoError(t, f.service.DeleteRole(ctx, created.ID))
	_, err = f.service.GetRole(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.service.DeleteRole(ctx, created.ID), shared.ErrNotFound)
}

func TestListRolesOrderedByRank(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)
	_, err := f.service.CreateRole(ctx, "Auditor", nil)
	require.NoError(t, err)

	roles, err := f.service.ListRoles(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, append(DefaultRoleOrder(), "Auditor"), names)
}

func snapshotPermissions(t *testing.T, f seededFixture) map[string][]string {
	t.Helper()
	out := make(map[string][]string)
	for _, name := range f.hierarchy.Roles() {
		perms, err := f.service.PermissionsForRoles(context.Background(), []string{name})
		require.NoError(t, err)
		out[name] = perms
	}
	return out
}

type nameLookupStore struct {
	*MemoryStore
	nameLookups int
}

func (n *nameLookupStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	n.nameLookups++
	return n.MemoryStore.FindRoleByName(ctx, name)
}

func TestResolveRolesReadsClaimsByRoleID(t *testing.T) {
	ctx := context.Background()
	f := newSeededFixture(t)
	id := f.addUser(t, "duo", RoleModerator, RoleManager)

	store := &nameLookupStore{MemoryStore: f.store}
	svc := NewService(store, f.hierarchy, discardLogger())

	roles, perms, err := svc.ResolveRoles(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleModerator, RoleManager}, roles)
	assert.ElementsMatch(t, f.hierarchy.EffectivePermissions(RoleManager), perms)

	_, err = svc.UserPermissions(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, store.nameLookups)
}
