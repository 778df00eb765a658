package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

const (
	// HeaderUserID carries the caller's user id from the trusted gateway.
	HeaderUserID = "X-User-ID"
	// HeaderTenantID carries the caller's tenant; absent means global.
	HeaderTenantID = "X-Tenant-ID"
)

// Middleware wires permission checks for HTTP handlers. Every failure mode
// denies the request.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Identify reads the caller identity headers into the request context.
// Malformed headers leave the request anonymous.
func (m Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.principalFromHeaders(r)
		if ok {
			r = r.WithContext(ContextWithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the caller holds at least one of ids in their tenant.
func (m Middleware) RequireAny(ids ...permission.ID) func(http.Handler) http.Handler {
	return m.require("rbac require any", ids, func(set permission.Set) bool {
		return len(ids) == 0 || set.HasAny(ids...)
	})
}

// RequireAll ensures the caller holds every id in their tenant.
func (m Middleware) RequireAll(ids ...permission.ID) func(http.Handler) http.Handler {
	return m.require("rbac require all", ids, func(set permission.Set) bool {
		return set.HasAll(ids...)
	})
}

func (m Middleware) require(op string, ids []permission.ID, allow func(permission.Set) bool) func(http.Handler) http.Handler {
	for _, id := range ids {
		if err := permission.Validate(id); err != nil {
			panic(err)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				p, ok = m.principalFromHeaders(r)
			}
			if !ok || m.Resolver == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			set, err := m.Resolver.Resolve(r.Context(), Request{UserID: p.UserID, Tenant: p.Tenant})
			if err != nil {
				m.logger().Error(op, slog.String("user_id", p.UserID.String()), slog.Any("error", err))
				m.Resolver.metrics.decision("error")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !allow(set) {
				m.Resolver.metrics.decision("denied")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			m.Resolver.metrics.decision("allowed")
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func (m Middleware) principalFromHeaders(r *http.Request) (Principal, bool) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" {
		return Principal{}, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		m.logger().Warn("rbac parse user id", slog.String("value", raw))
		return Principal{}, false
	}
	tenant := grants.Global()
	if rawTenant := strings.TrimSpace(r.Header.Get(HeaderTenantID)); rawTenant != "" {
		tenantID, err := uuid.Parse(rawTenant)
		if err != nil {
			m.logger().Warn("rbac parse tenant id", slog.String("value", rawTenant))
			return Principal{}, false
		}
		tenant = grants.TenantOf(tenantID)
	}
	return Principal{UserID: userID, Tenant: tenant}, true
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
