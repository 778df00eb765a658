package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

// GrantRepository is the persistence contract of Service.
type GrantRepository interface {
	grants.Store
	grants.Transactor
	GetByID(ctx context.Context, scope grants.Scope, id uuid.UUID) (grants.Grant, error)
}

// Service orchestrates grant administration. Every successful mutation bumps
// the resolve cache version.
type Service struct {
	repo   GrantRepository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil.
func NewService(repo GrantRepository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns every live grant held by userID.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]grants.Grant, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Grant adds ids to the grant at key, creating it when missing. A non-nil
// expiresAt replaces the stored expiry.
func (s *Service) Grant(ctx context.Context, key grants.Key, ids []permission.ID, expiresAt *time.Time) (grants.Grant, error) {
	add, err := setOf(ids)
	if err != nil {
		return grants.Grant{}, err
	}
	var saved grants.Grant
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx grants.TxStore) error {
		current, err := tx.Get(ctx, key)
		switch {
		case errors.Is(err, grants.ErrNotFound):
			current = grants.NewGrant(key, permission.Empty(), nil)
		case err != nil:
			return err
		}
		current.Flags = current.Flags.Union(add)
		if expiresAt != nil {
			current.ExpiresAt = expiresAt
		}
		saved, err = tx.Upsert(ctx, current)
		return err
	})
	if err != nil {
		return grants.Grant{}, err
	}
	s.invalidate(ctx)
	return saved, nil
}

// Revoke clears ids from the grant at key. The row is kept even when its set
// becomes empty.
func (s *Service) Revoke(ctx context.Context, key grants.Key, ids []permission.ID) (grants.Grant, error) {
	remove, err := setOf(ids)
	if err != nil {
		return grants.Grant{}, err
	}
	var saved grants.Grant
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx grants.TxStore) error {
		current, err := tx.Get(ctx, key)
		if err != nil {
			if errors.Is(err, grants.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		current.Flags = current.Flags.Difference(remove)
		saved, err = tx.Upsert(ctx, current)
		return err
	})
	if err != nil {
		return grants.Grant{}, err
	}
	s.invalidate(ctx)
	return saved, nil
}

// Replace overwrites the flags and expiry of the grant at g's key.
func (s *Service) Replace(ctx context.Context, g grants.Grant) (grants.Grant, error) {
	saved, err := s.repo.Upsert(ctx, g)
	if err != nil {
		return grants.Grant{}, err
	}
	s.invalidate(ctx)
	return saved, nil
}

// Lookup returns the live grant id in scope.
func (s *Service) Lookup(ctx context.Context, scope grants.Scope, id uuid.UUID) (grants.Grant, error) {
	g, err := s.repo.GetByID(ctx, scope, id)
	if errors.Is(err, grants.ErrNotFound) {
		return grants.Grant{}, ErrNotFound
	}
	return g, err
}

// SoftDelete marks the grant id in scope as deleted.
func (s *Service) SoftDelete(ctx context.Context, scope grants.Scope, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, scope, id); err != nil {
		if errors.Is(err, grants.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// InvalidateCache drops every cached resolution.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("authz cache bump", slog.Any("error", err))
	}
}

func setOf(ids []permission.ID) (permission.Set, error) {
	if len(ids) == 0 {
		return permission.Set{}, fmt.Errorf("%w: no permissions given", grants.ErrInvalidGrant)
	}
	for _, id := range ids {
		if err := permission.Validate(id); err != nil {
			return permission.Set{}, err
		}
	}
	return permission.Of(ids...), nil
}
