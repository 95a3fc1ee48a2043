package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// OrganisationRoleOwner is preferred when choosing the current organisation
	OrganisationRoleOwner = "owner"

	RoleAdmin       = "admin"
	RoleRiskManager = "risk_manager"
)

// ID is a remote identifier. The API returns numbers for some resources and strings for
// others, both decode into the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Permission is a named capability granted to a user directly or through a role.
type Permission struct {
	ID        ID     `json:"id,omitempty"`
	Name      string `json:"name"`
	GuardName string `json:"guard_name,omitempty"`
}

func (p Permission) Desc() string {
	return p.Name
}

// Role is a named group of permissions.
type Role struct {
	ID          ID           `json:"id,omitempty"`
	Name        string       `json:"name"`
	GuardName   string       `json:"guard_name,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

func (r Role) Desc() string {
	return r.Name
}

// Organisation is a user's membership of an organisation. Details holds whatever
// the organisation endpoint returned when the membership was enriched.
type Organisation struct {
	OrganisationID   ID             `json:"organisation_id"`
	Role             string         `json:"role,omitempty"`
	OrganisationName string         `json:"organisation_name,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// Merge overlays organisation details onto the membership. Known membership keys in
// details replace the current values.
func (o *Organisation) Merge(details map[string]any) {
	if len(details) == 0 {
		return
	}
	if o.Details == nil {
		o.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		o.Details[k] = v
	}
	if name, ok := details["organisation_name"].(string); ok && name != "" {
		o.OrganisationName = name
	} else if name, ok := details["name"].(string); ok && name != "" && o.OrganisationName == "" {
		o.OrganisationName = name
	}
	if role, ok := details["role"].(string); ok && role != "" {
		o.Role = role
	}
}

// SelectCurrentOrganisation prefers the membership with the owner role, then the first
// membership. It returns nil for an empty list.
func SelectCurrentOrganisation(orgs []Organisation) *Organisation {
	for i := range orgs {
		if orgs[i].Role == OrganisationRoleOwner {
			org := orgs[i]
			return &org
		}
	}
	if len(orgs) > 0 {
		org := orgs[0]
		return &org
	}
	return nil
}

type User struct {
	ID                  ID             `json:"id,omitempty"`
	Name                string         `json:"name,omitempty"`
	Email               string         `json:"email,omitempty"`
	Roles               []Role         `json:"roles,omitempty"`
	Permissions         []Permission   `json:"permissions,omitempty"`
	Organisations       []Organisation `json:"organisations,omitempty"`
	CurrentOrganisation *Organisation  `json:"currentOrganisation,omitempty"`
}

// DisplayName returns the name, falling back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// RoleList is nil-safe access to the user's roles.
func (u *User) RoleList() []Role {
	if u == nil || u.Roles == nil {
		return []Role{}
	}
	return u.Roles
}

// PermissionList is nil-safe access to the user's permissions.
func (u *User) PermissionList() []Permission {
	if u == nil || u.Permissions == nil {
		return []Permission{}
	}
	return u.Permissions
}

// Clone returns a deep copy so callers cannot mutate session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Roles != nil {
		c.Roles = make([]Role, len(u.Roles))
		for i, r := range u.Roles {
			c.Roles[i] = r
			if r.Permissions != nil {
				c.Roles[i].Permissions = append([]Permission(nil), r.Permissions...)
			}
		}
	}
	if u.Permissions != nil {
		c.Permissions = append([]Permission(nil), u.Permissions...)
	}
	if u.Organisations != nil {
		c.Organisations = make([]Organisation, len(u.Organisations))
		for i, o := range u.Organisations {
			c.Organisations[i] = o.clone()
		}
	}
	if u.CurrentOrganisation != nil {
		org := u.CurrentOrganisation.clone()
		c.CurrentOrganisation = &org
	}
	return &c
}

func (o Organisation) clone() Organisation {
	c := o
	if o.Details != nil {
		c.Details = make(map[string]any, len(o.Details))
		for k, v := range o.Details {
			c.Details[k] = v
		}
	}
	return c
}
