package grants

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

type tenantKind uint8

const (
	tenantGlobal tenantKind = iota + 1
	tenantNone
	tenantSpecific
)

// TenantScope is the tenant context of a grant or a resolution request.
//
// Global and NoTenant are distinct for callers but share one storage
// representation (tenant_id IS NULL). Rows read back with a NULL tenant are
// reported as Global. The zero value is invalid.
type TenantScope struct {
	kind tenantKind
	id   uuid.UUID
}

// Global is the platform-wide scope used for cross-tenant grants.
func Global() TenantScope {
	return TenantScope{kind: tenantGlobal}
}

// NoTenant is the scope of resources that belong to no tenant.
func NoTenant() TenantScope {
	return TenantScope{kind: tenantNone}
}

// TenantOf scopes to one tenant. uuid.Nil yields NoTenant.
func TenantOf(id uuid.UUID) TenantScope {
	if id == uuid.Nil {
		return NoTenant()
	}
	return TenantScope{kind: tenantSpecific, id: id}
}

func tenantFromColumn(col uuid.NullUUID) TenantScope {
	if !col.Valid {
		return Global()
	}
	return TenantOf(col.UUID)
}

// ID returns the tenant id for a specific tenant.
func (t TenantScope) ID() (uuid.UUID, bool) {
	return t.id, t.kind == tenantSpecific
}

func (t TenantScope) IsGlobal() bool   { return t.kind == tenantGlobal }
func (t TenantScope) IsNoTenant() bool { return t.kind == tenantNone }
func (t TenantScope) IsSpecific() bool { return t.kind == tenantSpecific }
func (t TenantScope) IsValid() bool    { return t.kind >= tenantGlobal && t.kind <= tenantSpecific }

// column returns the tenant_id value: nil for Global and NoTenant.
func (t TenantScope) column() any {
	if t.kind == tenantSpecific {
		return t.id
	}
	return nil
}

func (t TenantScope) String() string {
	switch t.kind {
	case tenantGlobal:
		return "global"
	case tenantNone:
		return "none"
	case tenantSpecific:
		return t.id.String()
	default:
		return "invalid"
	}
}

// ScopeKind is the level a grant applies to.
type ScopeKind uint8

const (
	ScopeTenant ScopeKind = iota + 1
	ScopeContentType
	ScopeResource
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTenant:
		return "tenant"
	case ScopeContentType:
		return "content_type"
	case ScopeResource:
		return "resource"
	default:
		return "invalid"
	}
}

// ParseScopeKind parses the String form of a ScopeKind.
func ParseScopeKind(raw string) (ScopeKind, error) {
	for _, k := range []ScopeKind{ScopeTenant, ScopeContentType, ScopeResource} {
		if k.String() == raw {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown scope %q", ErrInvalidGrant, raw)
}

// Scope is what a grant applies to. ContentType is set for content-type and
// resource scopes; it also selects the resource table.
type Scope struct {
	Kind        ScopeKind
	ContentType permission.ContentType
	ResourceID  uuid.UUID
}

func TenantLevel() Scope {
	return Scope{Kind: ScopeTenant}
}

func ContentTypeLevel(ct permission.ContentType) Scope {
	return Scope{Kind: ScopeContentType, ContentType: ct}
}

func ResourceLevel(ct permission.ContentType, resourceID uuid.UUID) Scope {
	return Scope{Kind: ScopeResource, ContentType: ct, ResourceID: resourceID}
}

// Validate checks the scope is internally consistent.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeTenant:
		if s.ContentType != "" || s.ResourceID != uuid.Nil {
			return fmt.Errorf("%w: tenant scope carries a target", ErrInvalidGrant)
		}
	case ScopeContentType:
		if !s.ContentType.Known() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidGrant, permission.ErrUnknownContentType, s.ContentType)
		}
		if s.ResourceID != uuid.Nil {
			return fmt.Errorf("%w: content-type scope carries a resource id", ErrInvalidGrant)
		}
	case ScopeResource:
		if !s.ContentType.Known() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidGrant, permission.ErrUnknownContentType, s.ContentType)
		}
		if s.ResourceID == uuid.Nil {
			return fmt.Errorf("%w: resource scope without resource id", ErrInvalidGrant)
		}
	default:
		return fmt.Errorf("%w: scope kind %d", ErrInvalidGrant, s.Kind)
	}
	return nil
}

// Key is the natural key of a grant. A NULL subject (UserID.Valid == false)
// addresses the default grant of a scope.
type Key struct {
	UserID uuid.NullUUID
	Tenant TenantScope
	Scope  Scope
}

// Validate checks the key can address a stored grant.
func (k Key) Validate() error {
	if !k.Tenant.IsValid() {
		return fmt.Errorf("%w: tenant scope not set", ErrInvalidGrant)
	}
	return k.Scope.Validate()
}

func (k Key) String() string {
	user := "*"
	if k.UserID.Valid {
		user = k.UserID.UUID.String()
	}
	s := fmt.Sprintf("%s/%s/%s", user, k.Tenant, k.Scope.Kind)
	switch k.Scope.Kind {
	case ScopeContentType:
		s += "/" + string(k.Scope.ContentType)
	case ScopeResource:
		s += "/" + string(k.Scope.ContentType) + "/" + k.Scope.ResourceID.String()
	}
	return s
}

// Grant binds a permission set to a subject and scope.
type Grant struct {
	ID        uuid.UUID
	UserID    uuid.NullUUID
	Tenant    TenantScope
	Scope     Scope
	Flags     permission.Set
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Key returns the natural key of g.
func (g Grant) Key() Key {
	return Key{UserID: g.UserID, Tenant: g.Tenant, Scope: g.Scope}
}

// Active reports whether g applies at now. A grant expiring exactly at now is inactive.
func (g Grant) Active(now time.Time) bool {
	if g.DeletedAt != nil {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// NewGrant returns an unsaved grant for key.
func NewGrant(key Key, flags permission.Set, expiresAt *time.Time) Grant {
	return Grant{
		UserID:    key.UserID,
		Tenant:    key.Tenant,
		Scope:     key.Scope,
		Flags:     flags,
		ExpiresAt: expiresAt,
	}
}

// UserKey builds a key for a concrete user.
func UserKey(userID uuid.UUID, tenant TenantScope, scope Scope) Key {
	return Key{UserID: uuid.NullUUID{UUID: userID, Valid: true}, Tenant: tenant, Scope: scope}
}
