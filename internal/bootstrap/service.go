// Package bootstrap provisions the platform super administrator.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
	"github.com/gameguild-gg/gameguild-sub001/internal/users"
)

var (
	// ErrAdminUserNotFound is reported as a warning when the configured
	// administrator account does not exist yet. It never fails a deployment.
	ErrAdminUserNotFound = errors.New("bootstrap: admin user not found")
	// ErrAdminEmailRequired reports an empty administrator e-mail.
	ErrAdminEmailRequired = errors.New("bootstrap: admin email required")
)

// UserFinder resolves accounts by e-mail.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Invalidator drops cached permission resolutions.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Result summarises one EnsureSuperAdmin run.
type Result struct {
	UserID       uuid.UUID
	Skipped      bool
	Warning      error
	Purged       int64
	Flags        permission.Set
	ContentTypes []permission.ContentType
}

// Service provisions super-administrator grants.
type Service struct {
	users  UserFinder
	grants grants.Transactor
	cache  Invalidator
	logger *slog.Logger
}

// NewService wires the bootstrap. cache may be nil.
func NewService(users UserFinder, store grants.Transactor, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, grants: store, cache: cache, logger: logger}
}

// EnsureSuperAdmin resets the tenant-level and content-type grants of the
// user registered under email to one global tenant grant and one global
// grant per content type, each holding every catalog permission. The reset
// runs in one transaction, so concurrent resolution never observes the
// purged intermediate state. Running it again yields the same end state.
//
// A missing user is not an error: the returned Result is Skipped and carries
// ErrAdminUserNotFound as its Warning.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email string, contentTypes []string) (Result, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Result{}, ErrAdminEmailRequired
	}
	types, err := parseContentTypes(contentTypes)
	if err != nil {
		return Result{}, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.logger.Warn("super admin bootstrap skipped", slog.String("email", email), slog.Any("warning", ErrAdminUserNotFound))
			return Result{Skipped: true, Warning: ErrAdminUserNotFound}, nil
		}
		return Result{}, fmt.Errorf("bootstrap: find admin: %w", err)
	}

	all := permission.AllKnown()
	res := Result{UserID: user.ID, Flags: all, ContentTypes: types}
	err = s.grants.WithTx(ctx, func(ctx context.Context, tx grants.TxStore) error {
		purged, err := tx.PurgeUserGrants(ctx, user.ID)
		if err != nil {
			return err
		}
		res.Purged = purged
		if _, err := tx.Upsert(ctx, grants.NewGrant(grants.UserKey(user.ID, grants.Global(), grants.TenantLevel()), all, nil)); err != nil {
			return fmt.Errorf("bootstrap: tenant grant: %w", err)
		}
		for _, ct := range types {
			key := grants.UserKey(user.ID, grants.Global(), grants.ContentTypeLevel(ct))
			if _, err := tx.Upsert(ctx, grants.NewGrant(key, all, nil)); err != nil {
				return fmt.Errorf("bootstrap: %s grant: %w", ct, err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("super admin bootstrap cache bump", slog.Any("error", err))
		}
	}
	s.logger.Info("super admin ensured",
		slog.String("user_id", user.ID.String()),
		slog.Int64("purged", res.Purged),
		slog.Int("content_types", len(types)))
	return res, nil
}

// parseContentTypes resolves names through the registry, dropping duplicates
// and keeping first-seen order.
func parseContentTypes(raw []string) ([]permission.ContentType, error) {
	seen := make(map[permission.ContentType]struct{}, len(raw))
	out := make([]permission.ContentType, 0, len(raw))
	for _, name := range raw {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ct, err := permission.ParseContentType(name)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		if _, dup := seen[ct]; dup {
			continue
		}
		seen[ct] = struct{}{}
		out = append(out, ct)
	}
	return out, nil
}
