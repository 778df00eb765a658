package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

var (
	// ErrNotFound indicates that the requested grant does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrInvalidRequest reports a resolution request that cannot be evaluated.
	ErrInvalidRequest = errors.New("rbac: invalid request")
)

// Request describes one authorization question. A zero At means "now" and
// makes the answer cacheable.
type Request struct {
	UserID      uuid.UUID
	Tenant      grants.TenantScope
	ContentType permission.ContentType
	ResourceID  uuid.UUID
	At          time.Time
}

func (r Request) validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id required", ErrInvalidRequest)
	}
	if !r.Tenant.IsValid() {
		return fmt.Errorf("%w: tenant scope not set", ErrInvalidRequest)
	}
	if r.ResourceID != uuid.Nil && r.ContentType == "" {
		return fmt.Errorf("%w: resource id without content type", ErrInvalidRequest)
	}
	return nil
}

// cacheKey identifies the request independently of its evaluation time.
func (r Request) cacheKey() string {
	parts := []string{"authz", "resolve", r.UserID.String(), r.Tenant.String()}
	if r.ContentType != "" {
		parts = append(parts, string(r.ContentType))
	}
	if r.ResourceID != uuid.Nil {
		parts = append(parts, r.ResourceID.String())
	}
	return strings.Join(parts, ":")
}

// Principal is the caller identity forwarded by the upstream gateway.
type Principal struct {
	UserID uuid.UUID
	Tenant grants.TenantScope
}

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller identity, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != uuid.Nil
}
