package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/httpx"
)

// PermissionsHandler exposes the catalog, permission checks and grant
// administration as JSON.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *Resolver
	rbac      Middleware
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, resolver *Resolver, rbac Middleware) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.Identify)
	r.Get("/catalog", h.listCatalog)
	r.Get("/content-types", h.listContentTypes)
	r.Post("/check", h.check)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(permission.ManagePermissions))
		r.Get("/grants", h.listGrants)
		r.Put("/grants", h.replaceGrant)
		r.Post("/grants/grant", h.grant)
		r.Post("/grants/revoke", h.revoke)
		r.Delete("/grants/{scope}/{id}", h.deleteGrant)
	})
}

type checkRequest struct {
	UserID      string   `json:"user_id" validate:"omitempty,uuid"`
	TenantID    string   `json:"tenant_id"`
	ContentType string   `json:"content_type"`
	ResourceID  string   `json:"resource_id" validate:"omitempty,uuid"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type checkResponse struct {
	Allowed bool           `json:"allowed"`
	Granted []string       `json:"granted"`
	Flags   permission.Set `json:"flags"`
}

type grantRequest struct {
	UserID      string     `json:"user_id" validate:"omitempty,uuid"`
	TenantID    string     `json:"tenant_id"`
	Scope       string     `json:"scope" validate:"required,oneof=tenant content_type resource"`
	ContentType string     `json:"content_type" validate:"required_unless=Scope tenant"`
	ResourceID  string     `json:"resource_id" validate:"omitempty,uuid"`
	Permissions []string   `json:"permissions" validate:"dive,required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type grantResponse struct {
	ID          uuid.UUID      `json:"id"`
	UserID      *uuid.UUID     `json:"user_id"`
	Tenant      string         `json:"tenant"`
	Scope       string         `json:"scope"`
	ContentType string         `json:"content_type,omitempty"`
	ResourceID  *uuid.UUID     `json:"resource_id,omitempty"`
	Permissions []string       `json:"permissions"`
	Flags       permission.Set `json:"flags"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"count":   permission.Count,
		"entries": permission.Catalog(),
	})
}

func (h *PermissionsHandler) listContentTypes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"content_types": permission.ContentTypes()})
}

func (h *PermissionsHandler) check(w http.ResponseWriter, r *http.Request) {
	caller, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	var body checkRequest
	if !h.decode(w, r, &body) {
		return
	}
	ids, err := parsePermissionNames(body.Permissions)
	if err != nil {
		h.respondError(w, err)
		return
	}
	tenant, err := parseTenant(body.TenantID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	req := Request{UserID: caller.UserID, Tenant: tenant, ContentType: permission.ContentType(strings.TrimSpace(body.ContentType))}
	if body.UserID != "" {
		req.UserID = uuid.MustParse(body.UserID)
	}
	if body.ResourceID != "" {
		req.ResourceID = uuid.MustParse(body.ResourceID)
	}
	if req.UserID != caller.UserID && !h.authorizeTenant(w, r, req.Tenant) {
		return
	}

	set, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	granted := make([]string, 0)
	for _, id := range set.IDs() {
		granted = append(granted, id.String())
	}
	httpx.JSON(w, http.StatusOK, checkResponse{
		Allowed: set.HasAll(ids...),
		Granted: granted,
		Flags:   set,
	})
}

func (h *PermissionsHandler) listGrants(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: user_id must be a uuid", httpx.ErrValidation))
		return
	}
	tenant, err := parseTenant(r.URL.Query().Get("tenant_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !h.authorizeTenant(w, r, tenant) {
		return
	}
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(list))
	for _, g := range list {
		if tenant.IsSpecific() && !sameTenant(g.Tenant, tenant) {
			continue
		}
		out = append(out, toGrantResponse(g))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": out})
}

func (h *PermissionsHandler) replaceGrant(w http.ResponseWriter, r *http.Request) {
	key, ids, body, ok := h.decodeGrant(w, r)
	if !ok || !h.authorizeTenant(w, r, key.Tenant) {
		return
	}
	saved, err := h.service.Replace(r.Context(), grants.NewGrant(key, permission.Of(ids...), body.ExpiresAt))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponse(saved))
}

func (h *PermissionsHandler) grant(w http.ResponseWriter, r *http.Request) {
	key, ids, body, ok := h.decodeGrant(w, r)
	if !ok || !h.authorizeTenant(w, r, key.Tenant) {
		return
	}
	saved, err := h.service.Grant(r.Context(), key, ids, body.ExpiresAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponse(saved))
}

func (h *PermissionsHandler) revoke(w http.ResponseWriter, r *http.Request) {
	key, ids, _, ok := h.decodeGrant(w, r)
	if !ok || !h.authorizeTenant(w, r, key.Tenant) {
		return
	}
	saved, err := h.service.Revoke(r.Context(), key, ids)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponse(saved))
}

func (h *PermissionsHandler) deleteGrant(w http.ResponseWriter, r *http.Request) {
	kind, err := grants.ParseScopeKind(chi.URLParam(r, "scope"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: id must be a uuid", httpx.ErrValidation))
		return
	}
	scope := grants.Scope{Kind: kind}
	if kind == grants.ScopeResource {
		ct, err := permission.ParseContentType(r.URL.Query().Get("content_type"))
		if err != nil {
			h.respondError(w, err)
			return
		}
		scope.ContentType = ct
	}
	existing, err := h.service.Lookup(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !h.authorizeTenant(w, r, existing.Tenant) {
		return
	}
	if err := h.service.SoftDelete(r.Context(), scope, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeTenant requires the caller to hold ManagePermissions in the tenant
// a grant belongs to. Global and no-tenant grants need a global grant.
func (h *PermissionsHandler) authorizeTenant(w http.ResponseWriter, r *http.Request, tenant grants.TenantScope) bool {
	caller, ok := PrincipalFromContext(r.Context())
	if !ok || h.resolver == nil {
		httpx.RespondError(w, httpx.ErrForbidden)
		return false
	}
	target := grants.Global()
	if tenant.IsSpecific() {
		target = tenant
	}
	if !h.resolver.Allowed(r.Context(), Request{UserID: caller.UserID, Tenant: target}, permission.ManagePermissions) {
		h.logger.Warn("permissions admin denied",
			slog.String("user_id", caller.UserID.String()),
			slog.String("tenant", target.String()))
		httpx.RespondError(w, httpx.ErrForbidden)
		return false
	}
	return true
}

func sameTenant(a, b grants.TenantScope) bool {
	aID, aOK := a.ID()
	bID, bOK := b.ID()
	return aOK == bOK && aID == bID
}

func (h *PermissionsHandler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed json body", httpx.ErrValidation))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			httpx.RespondError(w, fmt.Errorf("%w: %s failed %s", httpx.ErrValidation, fieldErrs[0].Field(), fieldErrs[0].Tag()))
			return false
		}
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return false
	}
	return true
}

func (h *PermissionsHandler) decodeGrant(w http.ResponseWriter, r *http.Request) (grants.Key, []permission.ID, grantRequest, bool) {
	var body grantRequest
	if !h.decode(w, r, &body) {
		return grants.Key{}, nil, body, false
	}
	key, ids, err := body.toKey()
	if err != nil {
		h.respondError(w, err)
		return grants.Key{}, nil, body, false
	}
	return key, ids, body, true
}

func (b grantRequest) toKey() (grants.Key, []permission.ID, error) {
	ids, err := parsePermissionNames(b.Permissions)
	if err != nil {
		return grants.Key{}, nil, err
	}
	tenant, err := parseTenant(b.TenantID)
	if err != nil {
		return grants.Key{}, nil, err
	}
	kind, err := grants.ParseScopeKind(b.Scope)
	if err != nil {
		return grants.Key{}, nil, err
	}
	key := grants.Key{Tenant: tenant, Scope: grants.Scope{Kind: kind}}
	if b.UserID != "" {
		key.UserID = uuid.NullUUID{UUID: uuid.MustParse(b.UserID), Valid: true}
	}
	if kind != grants.ScopeTenant {
		ct, err := permission.ParseContentType(b.ContentType)
		if err != nil {
			return grants.Key{}, nil, err
		}
		key.Scope.ContentType = ct
	}
	if kind == grants.ScopeResource && b.ResourceID != "" {
		key.Scope.ResourceID = uuid.MustParse(b.ResourceID)
	}
	return key, ids, key.Validate()
}

func (h *PermissionsHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, grants.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, grants.ErrInvalidGrant),
		errors.Is(err, permission.ErrUnknownPermission),
		errors.Is(err, permission.ErrUnknownContentType):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	case errors.Is(err, grants.ErrStoreUnavailable):
		h.logger.Error("permissions store unavailable", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUnavailable)
	default:
		h.logger.Error("permissions handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// parseTenant accepts a tenant uuid, "none", or "global"/"" for the global scope.
func parseTenant(raw string) (grants.TenantScope, error) {
	switch raw = strings.TrimSpace(raw); strings.ToLower(raw) {
	case "", "global":
		return grants.Global(), nil
	case "none":
		return grants.NoTenant(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return grants.TenantScope{}, fmt.Errorf("%w: tenant_id %q", ErrInvalidRequest, raw)
	}
	return grants.TenantOf(id), nil
}

func parsePermissionNames(names []string) ([]permission.ID, error) {
	ids := make([]permission.ID, 0, len(names))
	for _, name := range names {
		id, ok := permission.ByName(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: %q", permission.ErrUnknownPermission, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toGrantResponse(g grants.Grant) grantResponse {
	names := make([]string, 0)
	for _, id := range g.Flags.IDs() {
		names = append(names, id.String())
	}
	out := grantResponse{
		ID:          g.ID,
		Tenant:      g.Tenant.String(),
		Scope:       g.Scope.Kind.String(),
		ContentType: string(g.Scope.ContentType),
		Permissions: names,
		Flags:       g.Flags,
		ExpiresAt:   g.ExpiresAt,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.UserID.Valid {
		id := g.UserID.UUID
		out.UserID = &id
	}
	if g.Scope.ResourceID != uuid.Nil {
		id := g.Scope.ResourceID
		out.ResourceID = &id
	}
	return out
}
