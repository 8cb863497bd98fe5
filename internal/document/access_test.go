package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessChecks(t *testing.T) {
	d := &Document{
		ID:    "d1",
		Owner: "alice",
		SharedWith: []ShareGrant{
			{UserID: "bob", Role: RoleEditor},
			{UserID: "carol", Role: RoleViewer},
		},
	}

	require.True(t, CanView(d, "alice"))
	require.True(t, CanEdit(d, "alice"))

	require.True(t, CanView(d, "bob"))
	require.True(t, CanEdit(d, "bob"))

	require.True(t, CanView(d, "carol"))
	require.False(t, CanEdit(d, "carol"))

	require.False(t, CanView(d, "mallory"))
	require.False(t, CanEdit(d, "mallory"))
	require.False(t, CanView(d, ""))
}

func TestRoleFor(t *testing.T) {
	d := &Document{
		ID:         "d1",
		Owner:      "alice",
		SharedWith: []ShareGrant{{UserID: "carol", Role: RoleViewer}},
	}

	r, ok := RoleFor(d, "alice")
	require.True(t, ok)
	require.Equal(t, RoleEditor, r)

	r, ok = RoleFor(d, "carol")
	require.True(t, ok)
	require.Equal(t, RoleViewer, r)

	_, ok = RoleFor(d, "mallory")
	require.False(t, ok)

	_, ok = RoleFor(nil, "alice")
	require.False(t, ok)
}
