package rbac

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

func guarded(mw func(http.Handler) http.Handler) http.Handler {
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func request(user, tenant string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	if tenant != "" {
		req.Header.Set(HeaderTenantID, tenant)
	}
	return req
}

func TestRequireAnyUsesCallerTenant(t *testing.T) {
	store := newMemStore()
	user, tenant := uuid.New(), uuid.New()
	store.seed(userGrant(user, grants.TenantOf(tenant), grants.TenantLevel(), permission.Approve))
	m := Middleware{Resolver: NewResolver(store, nil, nil, nil, ResolverConfig{})}
	h := guarded(m.RequireAny(permission.Approve, permission.Reject))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(user.String(), tenant.String()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(user.String(), ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllDeniesEveryFailureMode(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	store.seed(userGrant(user, grants.Global(), grants.TenantLevel(), permission.Read))
	m := Middleware{Resolver: NewResolver(store, nil, nil, nil, ResolverConfig{})}
	h := guarded(m.RequireAll(permission.Read, permission.Edit))

	for name, req := range map[string]*http.Request{
		"anonymous":      request("", ""),
		"malformed user": request("not-a-uuid", ""),
		"bad tenant":     request(user.String(), "acme"),
		"missing bit":    request(user.String(), ""),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, name)
	}

	store.err = errors.New("timeout")
	rec := httptest.NewRecorder()
	guarded(m.RequireAll(permission.Read)).ServeHTTP(rec, request(user.String(), ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	guarded(Middleware{}.RequireAll(permission.Read)).ServeHTTP(rec, request(user.String(), ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePanicsOnUnknownPermission(t *testing.T) {
	assert.Panics(t, func() { Middleware{}.RequireAll(permission.ID(0)) })
}

func TestIdentifyAttachesPrincipal(t *testing.T) {
	user := uuid.New()
	h := Middleware{}.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, user, p.UserID)
		assert.True(t, p.Tenant.IsGlobal())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(user.String(), ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
