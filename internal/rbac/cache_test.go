package rbac

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

type countingStore struct {
	*MemoryStore
	claimReads int
}

func (c *countingStore) GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.claimReads++
	return c.MemoryStore.GetClaimsForRole(ctx, roleID)
}

// pausingStore blocks the first claims read after loading it until released.
type pausingStore struct {
	*MemoryStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStore) GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error) {
	claims, err := p.MemoryStore.GetClaimsForRole(ctx, roleID)
	p.once.Do(func() {
		close(p.loaded)
		<-p.release
	})
	return claims, err
}

func newCachedFixture(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{MemoryStore: NewMemoryStore()}
	return NewCachedStore(backing, client, time.Minute, discardLogger()), backing, mr
}

func TestCachedStoreServesClaimsFromRedis(t *testing.T) {
	ctx := context.Background()
	cached, backing, mr := newCachedFixture(t)

	role, err := cached.CreateRole(ctx, RoleGuest)
	require.NoError(t, err)
	require.NoError(t, cached.AddClaim(ctx, role.ID, PermissionClaim(shared.PermViewGame)))

	first, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	second, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.claimReads)
	assert.True(t, mr.Exists(claimsCachePrefix+role.ID.String()))
	assert.Equal(t, time.Minute, mr.TTL(claimsCachePrefix+role.ID.String()))
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	cached, backing, _ := newCachedFixture(t)

	role, err := cached.CreateRole(ctx, RoleUser)
	require.NoError(t, err)
	_, err = cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)

	require.NoError(t, cached.AddClaim(ctx, role.ID, PermissionClaim(shared.PermBuyGame)))
	claims, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []Claim{PermissionClaim(shared.PermBuyGame)}, claims)
	assert.Equal(t, 2, backing.claimReads)

	require.NoError(t, cached.RemoveClaim(ctx, role.ID, PermissionClaim(shared.PermBuyGame)))
	claims, err = cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	cached, backing, mr := newCachedFixture(t)

	role, err := cached.CreateRole(ctx, RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, cached.AddClaim(ctx, role.ID, PermissionClaim(shared.PermManageUsers)))
	mr.Close()

	claims, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []Claim{PermissionClaim(shared.PermManageUsers)}, claims)
	assert.Equal(t, 1, backing.claimReads)
}

func TestCachedStoreSeedThroughService(t *testing.T) {
	ctx := context.Background()
	cached, _, _ := newCachedFixture(t)
	h := DefaultHierarchy(discardLogger())
	svc := NewService(cached, h, discardLogger())

	_, err := svc.Seed(ctx, h)
	require.NoError(t, err)
	report, err := svc.Seed(ctx, h)
	require.NoError(t, err)
	assert.Zero(t, report.Drift())

	perms, err := svc.PermissionsForRoles(ctx, []string{RoleManager})
	require.NoError(t, err)
	assert.Contains(t, perms, shared.PermEditOrders)
}

func TestCachedStoreWriteDuringFillIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &pausingStore{MemoryStore: NewMemoryStore(), loaded: make(chan struct{}), release: make(chan struct{})}
	cached := NewCachedStore(backing, client, time.Hour, discardLogger())

	role, err := backing.CreateRole(ctx, RoleManager)
	require.NoError(t, err)
	require.NoError(t, backing.AddClaim(ctx, role.ID, PermissionClaim(shared.PermEditOrders)))

	done := make(chan error, 1)
	go func() {
		_, err := cached.GetClaimsForRole(ctx, role.ID)
		done <- err
	}()

	<-backing.loaded
	require.NoError(t, cached.RemoveClaim(ctx, role.ID, PermissionClaim(shared.PermEditOrders)))
	close(backing.release)
	require.NoError(t, <-done)

	assert.False(t, mr.Exists(claimsCachePrefix+role.ID.String()))
	claims, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestCachedStoreFillSurvivesCancelledCaller(t *testing.T) {
	cached, backing, mr := newCachedFixture(t)

	role, err := cached.CreateRole(context.Background(), RoleGuest)
	require.NoError(t, err)
	require.NoError(t, cached.AddClaim(context.Background(), role.ID, PermissionClaim(shared.PermViewGame)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	claims, err := cached.GetClaimsForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []Claim{PermissionClaim(shared.PermViewGame)}, claims)
	assert.Equal(t, 1, backing.claimReads)
	assert.True(t, mr.Exists(claimsCachePrefix+role.ID.String()))
}
