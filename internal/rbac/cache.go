package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	claimsCachePrefix = "rbac:claims:"
	claimsGenPrefix   = "rbac:claims-gen:"
)

var errStaleFill = errors.New("rbac cache: role changed during fill")

// CachedStore decorates a Store with a Redis read-through cache for role claims.
// Writes through the decorator invalidate the affected role. Redis failures fall
// back to the wrapped store.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedStore wraps store. A nil client disables caching.
func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{Store: store, client: client, ttl: ttl, logger: logger}
}

// GetClaimsForRole returns cached claims, loading them from the wrapped store on miss.
// A fill only writes back when the role's generation is unchanged since before
// the load, so a write racing the fill cannot be overwritten with old claims.
func (c *CachedStore) GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error) {
	if c.client == nil {
		return c.Store.GetClaimsForRole(ctx, roleID)
	}
	key := claimsCachePrefix + roleID.String()
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var claims []Claim
		if err := json.Unmarshal(raw, &claims); err == nil {
			return claims, nil
		}
		c.warn("rbac cache decode", key, err)
	} else if !errors.Is(err, redis.Nil) {
		c.warn("rbac cache get", key, err)
	}

	// Shared fills must not fail because the first caller went away.
	fillCtx := context.WithoutCancel(ctx)
	genKey := claimsGenPrefix + roleID.String()
	gen, genErr := c.client.Get(fillCtx, genKey).Result()
	if errors.Is(genErr, redis.Nil) {
		gen, genErr = "0", nil
	}
	if genErr != nil {
		c.warn("rbac cache generation", genKey, genErr)
		return c.Store.GetClaimsForRole(fillCtx, roleID)
	}

	v, err, _ := c.group.Do(key+"@"+gen, func() (interface{}, error) {
		claims, err := c.Store.GetClaimsForRole(fillCtx, roleID)
		if err != nil {
			return nil, err
		}
		if body, err := json.Marshal(claims); err == nil {
			c.store(fillCtx, key, genKey, gen, body)
		}
		return claims, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]Claim(nil), v.([]Claim)...), nil
}

// store writes body under key only while genKey still holds gen.
func (c *CachedStore) store(ctx context.Context, key, genKey, gen string, body []byte) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, redis.Nil) {
			cur, err = "0", nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
	default:
		c.warn("rbac cache set", key, err)
	}
}

func (c *CachedStore) AddClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	defer c.invalidate(ctx, roleID)
	return c.Store.AddClaim(ctx, roleID, claim)
}

func (c *CachedStore) RemoveClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	defer c.invalidate(ctx, roleID)
	return c.Store.RemoveClaim(ctx, roleID, claim)
}

func (c *CachedStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	defer c.invalidate(ctx, id)
	return c.Store.DeleteRole(ctx, id)
}

// invalidate bumps the role generation and drops the cached claims in one transaction.
func (c *CachedStore) invalidate(ctx context.Context, roleID uuid.UUID) {
	if c.client == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	key := claimsCachePrefix + roleID.String()
	genKey := claimsGenPrefix + roleID.String()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.warn("rbac cache invalidate", key, err)
	}
}

func (c *CachedStore) warn(msg, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.String("key", key), slog.Any("error", err))
	}
}

var _ Store = (*CachedStore)(nil)
