package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

// memStore is an in-memory grants store. NULL tenants collapse to Global the
// same way the PostgreSQL columns do.
type memStore struct {
	mu     sync.Mutex
	rows   []grants.Grant
	err    error
	leaky  bool
	finds  int
	now    func() time.Time
	failTx error
}

var _ GrantRepository = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{now: time.Now}
}

func storedKey(k grants.Key) grants.Key {
	if !k.Tenant.IsSpecific() {
		k.Tenant = grants.Global()
	}
	return k
}

func (s *memStore) seed(g grants.Grant) grants.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.Tenant = storedKey(g.Key()).Tenant
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
		g.UpdatedAt = g.CreatedAt
	}
	s.rows = append(s.rows, g)
	return g
}

func (s *memStore) find(key grants.Key, now time.Time) (grants.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.err != nil {
		return grants.Grant{}, s.err
	}
	want := storedKey(key)
	for _, g := range s.rows {
		if g.Key() != want {
			continue
		}
		if s.leaky || g.Active(now) {
			return g, nil
		}
	}
	return grants.Grant{}, grants.ErrNotFound
}

func (s *memStore) FindTenantGrant(_ context.Context, user uuid.NullUUID, tenant grants.TenantScope, now time.Time) (grants.Grant, error) {
	return s.find(grants.Key{UserID: user, Tenant: tenant, Scope: grants.TenantLevel()}, now)
}

func (s *memStore) FindContentTypeGrant(_ context.Context, user uuid.NullUUID, tenant grants.TenantScope, ct permission.ContentType, now time.Time) (grants.Grant, error) {
	return s.find(grants.Key{UserID: user, Tenant: tenant, Scope: grants.ContentTypeLevel(ct)}, now)
}

func (s *memStore) FindResourceGrant(_ context.Context, user uuid.NullUUID, tenant grants.TenantScope, ct permission.ContentType, resourceID uuid.UUID, now time.Time) (grants.Grant, error) {
	return s.find(grants.Key{UserID: user, Tenant: tenant, Scope: grants.ResourceLevel(ct, resourceID)}, now)
}

func (s *memStore) Get(_ context.Context, key grants.Key) (grants.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := storedKey(key)
	for _, g := range s.rows {
		if g.Key() == want && g.DeletedAt == nil {
			return g, nil
		}
	}
	return grants.Grant{}, grants.ErrNotFound
}

func (s *memStore) GetByID(_ context.Context, scope grants.Scope, id uuid.UUID) (grants.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return grants.Grant{}, s.err
	}
	for _, g := range s.rows {
		if g.ID == id && g.Scope.Kind == scope.Kind && g.DeletedAt == nil {
			return g, nil
		}
	}
	return grants.Grant{}, grants.ErrNotFound
}

func (s *memStore) ListForUser(_ context.Context, userID uuid.UUID) ([]grants.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []grants.Grant
	for _, g := range s.rows {
		if g.UserID.Valid && g.UserID.UUID == userID && g.DeletedAt == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, g grants.Grant) (grants.Grant, error) {
	if err := g.Key().Validate(); err != nil {
		return grants.Grant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	want := storedKey(g.Key())
	for i, row := range s.rows {
		if row.Key() == want && row.DeletedAt == nil {
			row.Flags = g.Flags
			row.ExpiresAt = g.ExpiresAt
			row.UpdatedAt = now
			s.rows[i] = row
			return row, nil
		}
	}
	g.ID = uuid.New()
	g.Tenant = want.Tenant
	g.CreatedAt, g.UpdatedAt = now, now
	s.rows = append(s.rows, g)
	return g, nil
}

func (s *memStore) SoftDelete(_ context.Context, scope grants.Scope, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == id && row.Scope.Kind == scope.Kind && row.DeletedAt == nil {
			now := s.now()
			row.DeletedAt = &now
			s.rows[i] = row
			return nil
		}
	}
	return grants.ErrNotFound
}

func (s *memStore) PurgeUserGrants(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	var purged int64
	for _, row := range s.rows {
		if row.UserID.Valid && row.UserID.UUID == userID && row.Scope.Kind != grants.ScopeResource {
			purged++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return purged, nil
}

// WithTx restores the previous rows when fn fails.
func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, grants.TxStore) error) error {
	if s.failTx != nil {
		return s.failTx
	}
	s.mu.Lock()
	snapshot := append([]grants.Grant(nil), s.rows...)
	s.mu.Unlock()
	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.rows = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) live() []grants.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []grants.Grant
	for _, row := range s.rows {
		if row.DeletedAt == nil {
			out = append(out, row)
		}
	}
	return out
}
