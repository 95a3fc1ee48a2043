package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/spares-console/users"
	"github.com/stretchr/testify/require"
)

func TestSelectCurrentOrganisation(t *testing.T) {
	tests := []struct {
		name string
		orgs []users.Organisation
		want users.ID
	}{
		{
			name: "owner wins over first",
			orgs: []users.Organisation{
				{OrganisationID: "1", Role: "member"},
				{OrganisationID: "2", Role: "owner"},
			},
			want: "2",
		},
		{
			name: "first when no owner",
			orgs: []users.Organisation{
				{OrganisationID: "7", Role: "member"},
				{OrganisationID: "8", Role: "viewer"},
			},
			want: "7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := users.SelectCurrentOrganisation(tt.orgs)
			require.NotNil(t, got)
			require.Equal(t, tt.want, got.OrganisationID)
		})
	}

	require.Nil(t, users.SelectCurrentOrganisation(nil))
}

func TestSelectCurrentOrganisation_ReturnsCopy(t *testing.T) {
	orgs := []users.Organisation{{OrganisationID: "1", Role: "owner"}}
	got := users.SelectCurrentOrganisation(orgs)
	got.Role = "member"
	require.Equal(t, "owner", orgs[0].Role)
}

func TestID_UnmarshalNumbersAndStrings(t *testing.T) {
	var org users.Organisation
	require.NoError(t, json.Unmarshal([]byte(`{"organisation_id": 42, "role": "owner"}`), &org))
	require.Equal(t, users.ID("42"), org.OrganisationID)

	require.NoError(t, json.Unmarshal([]byte(`{"organisation_id": "b1c2"}`), &org))
	require.Equal(t, users.ID("b1c2"), org.OrganisationID)

	require.NoError(t, json.Unmarshal([]byte(`{"organisation_id": null}`), &org))
	require.Equal(t, users.ID(""), org.OrganisationID)

	require.Error(t, json.Unmarshal([]byte(`{"organisation_id": {}}`), &org))
}

func TestOrganisation_Merge(t *testing.T) {
	org := users.Organisation{OrganisationID: "3", Role: "owner"}
	org.Merge(map[string]any{"name": "Acme Spares", "city": "Nairobi"})

	require.Equal(t, "Acme Spares", org.OrganisationName)
	require.Equal(t, "owner", org.Role)
	require.Equal(t, "Nairobi", org.Details["city"])

	org.Merge(map[string]any{"organisation_name": "Acme Ltd", "name": "ignored"})
	require.Equal(t, "Acme Ltd", org.OrganisationName)
}

func TestUser_DisplayNameAndLists(t *testing.T) {
	var nilUser *users.User
	require.Empty(t, nilUser.DisplayName())
	require.Empty(t, nilUser.RoleList())
	require.NotNil(t, nilUser.PermissionList())

	u := &users.User{Email: "jane@example.com"}
	require.Equal(t, "jane@example.com", u.DisplayName())
	u.Name = "Jane"
	require.Equal(t, "Jane", u.DisplayName())
}

func TestUser_CloneIsDeep(t *testing.T) {
	u := &users.User{
		Name:                "Jane",
		Roles:               []users.Role{{Name: "admin", Permissions: []users.Permission{{Name: "parts.view"}}}},
		Permissions:         []users.Permission{{Name: "parts.view"}},
		CurrentOrganisation: &users.Organisation{OrganisationID: "1", Details: map[string]any{"a": 1}},
	}
	c := u.Clone()
	c.Roles[0].Permissions[0].Name = "changed"
	c.Permissions[0].Name = "changed"
	c.CurrentOrganisation.Details["a"] = 2

	require.Equal(t, "parts.view", u.Roles[0].Permissions[0].Name)
	require.Equal(t, "parts.view", u.Permissions[0].Name)
	require.Equal(t, 1, u.CurrentOrganisation.Details["a"])
}
