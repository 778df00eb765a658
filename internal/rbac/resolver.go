package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

// ResolverConfig toggles optional resolution behaviour.
type ResolverConfig struct {
	// ValidateContentTypes rejects unregistered content types with
	// permission.ErrUnknownContentType. When off they resolve as tenant-only
	// requests, since no grant can reference them.
	ValidateContentTypes bool
	// IncludeResourceDefaults also unions the resource grant that has no
	// subject (user_id IS NULL).
	IncludeResourceDefaults bool
}

// Resolver computes effective permission sets from stored grants.
type Resolver struct {
	store   grants.Finder
	cache   *Cache
	metrics *Metrics
	logger  *slog.Logger
	cfg     ResolverConfig
	now     func() time.Time
	group   singleflight.Group
}

// NewResolver wires a Resolver. cache and metrics may be nil.
func NewResolver(store grants.Finder, cache *Cache, metrics *Metrics, logger *slog.Logger, cfg ResolverConfig) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock overrides the time source used for requests without At.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

type resolution struct {
	flags      permission.Set
	validUntil *time.Time
}

// Resolve returns the union of every active grant that applies to req:
// the global tenant grant, the tenant grant, the content-type grants for the
// tenant and for the global scope, and the resource grant. Missing grants
// contribute nothing; store failures return an error wrapping
// grants.ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, req Request) (permission.Set, error) {
	start := time.Now()
	set, err := r.resolve(ctx, req)
	r.metrics.observeResolve(start, err)
	return set, err
}

func (r *Resolver) resolve(ctx context.Context, req Request) (permission.Set, error) {
	req, err := r.normalize(req)
	if err != nil {
		return permission.Set{}, err
	}
	if !req.At.IsZero() {
		res, err := r.lookup(ctx, req, req.At)
		return res.flags, err
	}

	now := r.now()
	key := req.cacheKey()
	version, cached := r.cacheVersion(ctx, key)
	if cached {
		set, ok, err := r.cache.Get(ctx, key, version, now)
		switch {
		case err != nil:
			r.logger.Warn("authz cache read", slog.String("key", key), slog.Any("error", err))
		case ok:
			r.metrics.cacheResult("hit")
			return set, nil
		default:
			r.metrics.cacheResult("miss")
		}
	}

	flight := key
	if cached {
		flight = fmt.Sprintf("%s:%d", key, version)
	}
	ch := r.group.DoChan(flight, func() (any, error) {
		// Shared by every coalesced waiter.
		ctx := context.WithoutCancel(ctx)
		res, err := r.lookup(ctx, req, now)
		if err != nil {
			return nil, err
		}
		if cached {
			if err := r.cache.Put(ctx, key, version, res.flags, res.validUntil, now); err != nil {
				r.logger.Warn("authz cache write", slog.String("key", key), slog.Any("error", err))
			}
		}
		return res.flags, nil
	})
	select {
	case <-ctx.Done():
		return permission.Set{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return permission.Set{}, out.Err
		}
		return out.Val.(permission.Set), nil
	}
}

// cacheVersion reads the cache version before any grant is loaded. Results
// are only cached under a version observed ahead of the lookup.
func (r *Resolver) cacheVersion(ctx context.Context, key string) (int64, bool) {
	if !r.cache.enabled() {
		return 0, false
	}
	version, err := r.cache.Version(ctx)
	if err != nil {
		r.logger.Warn("authz cache version", slog.String("key", key), slog.Any("error", err))
		return 0, false
	}
	return version, true
}

func (r *Resolver) normalize(req Request) (Request, error) {
	if err := req.validate(); err != nil {
		return req, err
	}
	if req.ContentType == "" || req.ContentType.Known() {
		return req, nil
	}
	ct, err := permission.ParseContentType(string(req.ContentType))
	if err == nil {
		req.ContentType = ct
		return req, nil
	}
	if r.cfg.ValidateContentTypes {
		return req, err
	}
	req.ContentType = ""
	req.ResourceID = uuid.Nil
	return req, nil
}

func (r *Resolver) lookup(ctx context.Context, req Request, now time.Time) (resolution, error) {
	user := uuid.NullUUID{UUID: req.UserID, Valid: true}
	finds := []func(context.Context) (grants.Grant, error){
		func(ctx context.Context) (grants.Grant, error) {
			return r.store.FindTenantGrant(ctx, user, grants.Global(), now)
		},
	}
	if req.Tenant.IsSpecific() {
		finds = append(finds, func(ctx context.Context) (grants.Grant, error) {
			return r.store.FindTenantGrant(ctx, user, req.Tenant, now)
		})
	}
	if req.ContentType != "" {
		finds = append(finds, func(ctx context.Context) (grants.Grant, error) {
			return r.store.FindContentTypeGrant(ctx, user, grants.Global(), req.ContentType, now)
		})
		if req.Tenant.IsSpecific() {
			finds = append(finds, func(ctx context.Context) (grants.Grant, error) {
				return r.store.FindContentTypeGrant(ctx, user, req.Tenant, req.ContentType, now)
			})
		}
		if req.ResourceID != uuid.Nil {
			finds = append(finds, func(ctx context.Context) (grants.Grant, error) {
				return r.store.FindResourceGrant(ctx, user, req.Tenant, req.ContentType, req.ResourceID, now)
			})
			if r.cfg.IncludeResourceDefaults {
				finds = append(finds, func(ctx context.Context) (grants.Grant, error) {
					return r.store.FindResourceGrant(ctx, uuid.NullUUID{}, req.Tenant, req.ContentType, req.ResourceID, now)
				})
			}
		}
	}

	found := make([]*grants.Grant, len(finds))
	g, gctx := errgroup.WithContext(ctx)
	for i, find := range finds {
		i, find := i, find
		g.Go(func() error {
			grant, err := find(gctx)
			if errors.Is(err, grants.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = &grant
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("authz resolve",
			slog.String("user_id", req.UserID.String()),
			slog.String("tenant", req.Tenant.String()),
			slog.Any("error", err))
		if !errors.Is(err, grants.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", grants.ErrStoreUnavailable, err)
		}
		return resolution{}, err
	}

	var res resolution
	for _, grant := range found {
		if grant == nil || !grant.Active(now) {
			continue
		}
		res.flags = res.flags.Union(grant.Flags)
		if grant.ExpiresAt != nil && (res.validUntil == nil || grant.ExpiresAt.Before(*res.validUntil)) {
			until := *grant.ExpiresAt
			res.validUntil = &until
		}
	}
	return res, nil
}

// HasPermission reports whether the resolved set for req contains id.
func (r *Resolver) HasPermission(ctx context.Context, req Request, id permission.ID) (bool, error) {
	if err := permission.Validate(id); err != nil {
		return false, err
	}
	set, err := r.Resolve(ctx, req)
	if err != nil {
		return false, err
	}
	return set.Has(id), nil
}

// Allowed is the fail-closed boundary check: it reports true only when req
// resolves without error and holds every id.
func (r *Resolver) Allowed(ctx context.Context, req Request, ids ...permission.ID) bool {
	for _, id := range ids {
		if err := permission.Validate(id); err != nil {
			r.logger.Error("authz check with unknown permission", slog.Int("permission", int(id)))
			r.metrics.decision("error")
			return false
		}
	}
	set, err := r.Resolve(ctx, req)
	if err != nil {
		r.metrics.decision("error")
		return false
	}
	if !set.HasAll(ids...) {
		r.metrics.decision("denied")
		return false
	}
	r.metrics.decision("allowed")
	return true
}
