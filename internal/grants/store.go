package grants

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

// Finder looks up active grants. Lookups return ErrNotFound when no live,
// unexpired grant matches, and wrap infrastructure failures in
// ErrStoreUnavailable.
type Finder interface {
	FindTenantGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, now time.Time) (Grant, error)
	FindContentTypeGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, ct permission.ContentType, now time.Time) (Grant, error)
	FindResourceGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, ct permission.ContentType, resourceID uuid.UUID, now time.Time) (Grant, error)
}

// Store is the full grant repository.
type Store interface {
	Finder
	Get(ctx context.Context, key Key) (Grant, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error)
	Upsert(ctx context.Context, g Grant) (Grant, error)
	SoftDelete(ctx context.Context, scope Scope, id uuid.UUID) error
}

// TxStore is a Store bound to a transaction.
type TxStore interface {
	Store
	PurgeUserGrants(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Transactor runs a unit of work inside one transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

var (
	_ TxStore    = (*Repository)(nil)
	_ Transactor = (*Repository)(nil)
)
