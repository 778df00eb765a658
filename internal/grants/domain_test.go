package grants

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

func TestGrantActiveExpiryBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	atNow := now
	later := now.Add(time.Second)
	earlier := now.Add(-time.Second)

	assert.True(t, Grant{}.Active(now))
	assert.False(t, Grant{ExpiresAt: &atNow}.Active(now))
	assert.True(t, Grant{ExpiresAt: &later}.Active(now))
	assert.False(t, Grant{ExpiresAt: &earlier}.Active(now))
	assert.False(t, Grant{DeletedAt: &earlier}.Active(now))
}

func TestTenantScopeKinds(t *testing.T) {
	id := uuid.New()

	assert.True(t, Global().IsGlobal())
	assert.True(t, NoTenant().IsNoTenant())
	assert.True(t, TenantOf(id).IsSpecific())
	assert.True(t, TenantOf(uuid.Nil).IsNoTenant())
	assert.False(t, TenantScope{}.IsValid())
	assert.NotEqual(t, Global(), NoTenant())

	got, ok := TenantOf(id).ID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = Global().ID()
	assert.False(t, ok)

	assert.Nil(t, Global().column())
	assert.Nil(t, NoTenant().column())
	assert.Equal(t, id, TenantOf(id).column())
}

func TestNullTenantColumnReadsAsGlobal(t *testing.T) {
	assert.Equal(t, Global(), tenantFromColumn(uuid.NullUUID{}))
	id := uuid.New()
	assert.Equal(t, TenantOf(id), tenantFromColumn(uuid.NullUUID{UUID: id, Valid: true}))
}

func TestScopeValidate(t *testing.T) {
	require.NoError(t, TenantLevel().Validate())
	require.NoError(t, ContentTypeLevel(permission.ContentTypeProject).Validate())
	require.NoError(t, ResourceLevel(permission.ContentTypeProduct, uuid.New()).Validate())

	err := ContentTypeLevel("Projcet").Validate()
	require.ErrorIs(t, err, ErrInvalidGrant)
	require.ErrorIs(t, err, permission.ErrUnknownContentType)

	require.ErrorIs(t, ResourceLevel(permission.ContentTypeProject, uuid.Nil).Validate(), ErrInvalidGrant)
	require.ErrorIs(t, Scope{Kind: ScopeTenant, ContentType: permission.ContentTypePost}.Validate(), ErrInvalidGrant)
	require.ErrorIs(t, Scope{}.Validate(), ErrInvalidGrant)
}

func TestKeyValidateRequiresTenantScope(t *testing.T) {
	key := Key{UserID: uuid.NullUUID{UUID: uuid.New(), Valid: true}, Scope: TenantLevel()}
	require.ErrorIs(t, key.Validate(), ErrInvalidGrant)

	key.Tenant = Global()
	require.NoError(t, key.Validate())
}

func TestKeysAreComparable(t *testing.T) {
	user := uuid.New()
	resource := uuid.New()
	a := UserKey(user, Global(), ResourceLevel(permission.ContentTypeProject, resource))
	b := UserKey(user, Global(), ResourceLevel(permission.ContentTypeProject, resource))
	c := UserKey(user, NoTenant(), ResourceLevel(permission.ContentTypeProject, resource))

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.False(t, a == c)
	assert.Contains(t, a.String(), "/global/resource/Project/")
}

func TestParseScopeKind(t *testing.T) {
	for _, k := range []ScopeKind{ScopeTenant, ScopeContentType, ScopeResource} {
		got, err := ParseScopeKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseScopeKind("role")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}
