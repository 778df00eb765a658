package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsDenseAndNamed(t *testing.T) {
	entries := Catalog()
	require.Len(t, entries, Count)
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		require.Equal(t, ID(i+1), e.ID)
		require.NotEmpty(t, e.Name)
		_, dup := seen[e.Name]
		require.False(t, dup, "duplicate name %s", e.Name)
		seen[e.Name] = struct{}{}
	}
}

func TestCatalogFitsInSet(t *testing.T) {
	assert.LessOrEqual(t, Count, MaxID)
}

func TestLookupAndByName(t *testing.T) {
	entry, err := Lookup(ManagePermissions)
	require.NoError(t, err)
	assert.Equal(t, "ManagePermissions", entry.Name)
	assert.Equal(t, CategoryAdministration, entry.Category)

	id, ok := ByName("Publish")
	require.True(t, ok)
	assert.Equal(t, Publish, id)

	_, ok = ByName("publish")
	assert.False(t, ok)

	_, err = Lookup(0)
	assert.ErrorIs(t, err, ErrUnknownPermission)
}

func TestCatalogCopyIsIsolated(t *testing.T) {
	entries := Catalog()
	entries[0].Name = "mutated"
	assert.Equal(t, "Read", Catalog()[0].Name)
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "SuperAdmin", SuperAdmin.String())
	assert.Equal(t, "permission(120)", ID(120).String())
	assert.Equal(t, "administration", CategoryAdministration.String())
}
