package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

const cacheVersionKey = "authz:version"

// Cache stores resolved permission sets in Redis under a global version
// that every grant mutation bumps.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type cachedSet struct {
	Flags      permission.Set `json:"flags"`
	ValidUntil *time.Time     `json:"valid_until,omitempty"`
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func versionedKey(base string, version int64) string {
	return fmt.Sprintf("%s:%d", base, version)
}

// Get returns the set cached for base under version when it is still valid
// at now.
func (c *Cache) Get(ctx context.Context, base string, version int64, now time.Time) (permission.Set, bool, error) {
	if !c.enabled() {
		return permission.Set{}, false, nil
	}
	payload, err := c.client.Get(ctx, versionedKey(base, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return permission.Set{}, false, nil
	}
	if err != nil {
		return permission.Set{}, false, err
	}
	var entry cachedSet
	if err := json.Unmarshal(payload, &entry); err != nil {
		return permission.Set{}, false, err
	}
	if entry.ValidUntil != nil && !entry.ValidUntil.After(now) {
		return permission.Set{}, false, nil
	}
	return entry.Flags, true, nil
}

// Put stores set for base under version, the cache version read before the
// grants behind set were loaded. A Bump in between leaves the entry
// unreachable. validUntil, when set, is the earliest expiry among the grants
// that produced set; the entry never outlives it.
func (c *Cache) Put(ctx context.Context, base string, version int64, set permission.Set, validUntil *time.Time, now time.Time) error {
	if !c.enabled() {
		return nil
	}
	ttl := c.ttl
	if validUntil != nil {
		remaining := validUntil.Sub(now)
		if remaining <= 0 {
			return nil
		}
		if remaining < ttl {
			ttl = remaining
		}
	}
	raw, err := json.Marshal(cachedSet{Flags: set, ValidUntil: validUntil})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, versionedKey(base, version), raw, ttl).Err()
}

// Bump invalidates every cached set by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
