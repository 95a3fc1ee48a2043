package guard_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_DefaultRoutes(t *testing.T) {
	table := guard.NewTable(guard.DefaultRoutes())

	tests := []struct {
		path      string
		name      string
		needsAuth bool
	}{
		{path: "/", name: "login"},
		{path: "/dashboard", name: "Dashboard", needsAuth: true},
		{path: "/roles-permissions", name: "Roles & Permissions", needsAuth: true},
		{path: "/vendor-profile", name: "Vendor Profile", needsAuth: true},
		{path: "/pickup-points/", name: "Pickup Points", needsAuth: true},
		{path: "/parts?page=2", name: "Parts", needsAuth: true},
		{path: "/part-categories", name: "Part Categories", needsAuth: true},
		{path: "/unauthorized", name: "unauthorized"},
		{path: "/service-unavailable", name: "service-unavailable"},
		{path: "/error", name: "error"},
		{path: "/missing", name: "404"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc := table.Resolve(tt.path)
			assert.Equal(t, tt.name, loc.Name)
			assert.Equal(t, tt.needsAuth, loc.Meta.NeedsAuth())
		})
	}

	pattern, ok := table.Lookup("Vendor Parts")
	require.True(t, ok)
	assert.Equal(t, "/vendor-parts", pattern)
}

func TestTable_InheritsAndOverridesMeta(t *testing.T) {
	no := false
	table := guard.NewTable([]guard.Route{
		{
			Path: "/admin",
			Meta: guard.Meta{RequiresAuth: boolPtr(true), RequiresRole: guard.One("admin")},
			Children: []guard.Route{
				{Name: "users", Path: "users"},
				{Name: "audit", Path: "audit", Meta: guard.Meta{RequiresRole: guard.AnyOf("admin", "risk_manager")}},
				{Name: "help", Path: "help", Meta: guard.Meta{RequiresAuth: &no}},
				{Name: "user", Path: "users/:id"},
			},
		},
	})

	users := table.Resolve("/admin/users")
	assert.True(t, users.Meta.NeedsAuth())
	assert.Equal(t, []string{"admin"}, users.Meta.RequiresRole.Values())
	assert.False(t, users.Meta.RequiresRole.IsList())

	audit := table.Resolve("/admin/audit")
	assert.True(t, audit.Meta.RequiresRole.IsList())
	assert.Equal(t, []string{"admin", "risk_manager"}, audit.Meta.RequiresRole.Values())

	help := table.Resolve("/admin/help")
	assert.False(t, help.Meta.NeedsAuth())

	user := table.Resolve("/admin/users/42")
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, "42", user.Params["id"])

	// a parent without a name only groups its children
	assert.Equal(t, guard.NameNotFound, table.Resolve("/admin").Name)
}

func TestLoadRoutes(t *testing.T) {
	manifest := `
routes:
  - path: /
    meta:
      requiresAuth: true
    children:
      - name: Parts
        path: parts
        meta:
          requiresPermission: parts.view
      - name: Roles
        path: roles
        meta:
          requiresRole: [admin, risk_manager]
  - name: Landing
    path: /welcome
`
	routes, err := guard.LoadRoutes(strings.NewReader(manifest))
	require.NoError(t, err)

	table := guard.NewTable(routes)
	parts := table.Resolve("/parts")
	assert.True(t, parts.Meta.NeedsAuth())
	assert.Equal(t, "parts.view", parts.Meta.RequiresPermission.String())
	assert.False(t, parts.Meta.RequiresPermission.IsList())

	roles := table.Resolve("/roles")
	assert.Equal(t, []string{"admin", "risk_manager"}, roles.Meta.RequiresRole.Values())

	assert.False(t, table.Resolve("/welcome").Meta.NeedsAuth())
}

func TestLoadRoutes_Invalid(t *testing.T) {
	_, err := guard.LoadRoutes(strings.NewReader("routes: []"))
	assert.Error(t, err)

	_, err = guard.LoadRoutes(strings.NewReader("routes:\n  - path: /x\n    meta:\n      requiresRole: {a: b}\n"))
	assert.Error(t, err)

	_, err = guard.LoadRoutes(strings.NewReader("routes:\n  - path: /x\n    unknown: 1\n"))
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.False(t, guard.One("").Declared())
	assert.True(t, guard.AnyOf().Declared())
	assert.False(t, guard.Names{}.Declared())

	var n guard.Names
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &n))
	assert.True(t, n.IsList())
	assert.Equal(t, []string{"a", "b"}, n.Values())

	require.NoError(t, json.Unmarshal([]byte(`"a"`), &n))
	assert.False(t, n.IsList())

	data, err := json.Marshal(guard.AnyOf("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`3`), &n))
}

func TestNames_RejectsNonNameItems(t *testing.T) {
	_, err := guard.LoadRoutes(strings.NewReader("routes:\n  - path: /x\n    meta:\n      requiresRole: [admin, 7]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")

	_, err = guard.LoadRoutes(strings.NewReader("routes:\n  - path: /x\n    meta:\n      requiresPermission:\n        - parts.view\n        - [nested]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 6")

	routes, err := guard.LoadRoutes(strings.NewReader("routes:\n  - path: /x\n    meta:\n      requiresRole: [admin, \"7\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "7"}, routes[0].Meta.RequiresRole.Values())

	var n guard.Names
	err = json.Unmarshal([]byte(`["admin",7]`), &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}
