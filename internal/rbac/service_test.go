package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

func newServiceWithCache(t *testing.T) (*Service, *memStore, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	store := newMemStore()
	return NewService(store, cache, nil), store, cache
}

func TestServiceGrantMergesBits(t *testing.T) {
	svc, store, cache := newServiceWithCache(t)
	ctx := context.Background()
	key := grants.UserKey(uuid.New(), grants.Global(), grants.ContentTypeLevel(permission.ContentTypeProject))

	before, err := cache.Version(ctx)
	require.NoError(t, err)

	first, err := svc.Grant(ctx, key, []permission.ID{permission.Read}, nil)
	require.NoError(t, err)
	second, err := svc.Grant(ctx, key, []permission.ID{permission.Edit}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Flags.HasAll(permission.Read, permission.Edit))
	assert.Len(t, store.live(), 1)

	after, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}

func TestServiceGrantSetsExpiry(t *testing.T) {
	svc, _, _ := newServiceWithCache(t)
	key := grants.UserKey(uuid.New(), grants.NoTenant(), grants.TenantLevel())
	expires := time.Now().Add(24 * time.Hour).UTC()

	saved, err := svc.Grant(context.Background(), key, []permission.ID{permission.Comment}, &expires)
	require.NoError(t, err)
	require.NotNil(t, saved.ExpiresAt)
	assert.True(t, saved.ExpiresAt.Equal(expires))
}

func TestServiceGrantRejectsUnknownIDs(t *testing.T) {
	svc, store, _ := newServiceWithCache(t)
	key := grants.UserKey(uuid.New(), grants.Global(), grants.TenantLevel())

	_, err := svc.Grant(context.Background(), key, []permission.ID{permission.ID(92)}, nil)
	require.ErrorIs(t, err, permission.ErrUnknownPermission)
	_, err = svc.Grant(context.Background(), key, nil, nil)
	require.ErrorIs(t, err, grants.ErrInvalidGrant)
	assert.Empty(t, store.live())
}

func TestServiceRevoke(t *testing.T) {
	svc, store, _ := newServiceWithCache(t)
	ctx := context.Background()
	key := grants.UserKey(uuid.New(), grants.Global(), grants.TenantLevel())
	store.seed(grants.NewGrant(key, permission.Of(permission.Read, permission.Publish), nil))

	saved, err := svc.Revoke(ctx, key, []permission.ID{permission.Publish})
	require.NoError(t, err)
	assert.Equal(t, []permission.ID{permission.Read}, saved.Flags.IDs())

	saved, err = svc.Revoke(ctx, key, []permission.ID{permission.Read})
	require.NoError(t, err)
	assert.True(t, saved.Flags.IsEmpty())
	assert.Len(t, store.live(), 1)

	missing := grants.UserKey(uuid.New(), grants.Global(), grants.TenantLevel())
	_, err = svc.Revoke(ctx, missing, []permission.ID{permission.Read})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceReplaceAndSoftDelete(t *testing.T) {
	svc, store, _ := newServiceWithCache(t)
	ctx := context.Background()
	user := uuid.New()
	key := grants.UserKey(user, grants.Global(), grants.ResourceLevel(permission.ContentTypeProduct, uuid.New()))

	saved, err := svc.Replace(ctx, grants.NewGrant(key, permission.Of(permission.Price, permission.Discount), nil))
	require.NoError(t, err)
	saved, err = svc.Replace(ctx, grants.NewGrant(key, permission.Of(permission.Refund), nil))
	require.NoError(t, err)
	assert.Equal(t, []permission.ID{permission.Refund}, saved.Flags.IDs())

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.SoftDelete(ctx, key.Scope, saved.ID))
	require.ErrorIs(t, svc.SoftDelete(ctx, key.Scope, saved.ID), ErrNotFound)
	assert.Empty(t, store.live())
}

func TestServiceTransactionFailureLeavesCache(t *testing.T) {
	svc, store, cache := newServiceWithCache(t)
	ctx := context.Background()
	store.failTx = errors.New("begin: connection refused")

	before, err := cache.Version(ctx)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, grants.UserKey(uuid.New(), grants.Global(), grants.TenantLevel()), []permission.ID{permission.Read}, nil)
	require.Error(t, err)

	after, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestServiceWithoutCache(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil)
	_, err := svc.Grant(context.Background(), grants.UserKey(uuid.New(), grants.Global(), grants.TenantLevel()), []permission.ID{permission.Read}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateCache(context.Background()))
}
