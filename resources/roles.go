package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
	"github.com/jrsteele09/spares-console/users"
	"golang.org/x/sync/errgroup"
)

const pathRoles = "/roles"

type Roles struct {
	base
	roles           guarded[users.Role]
	rolePermissions guarded[users.Permission]
	permissions     *Permissions
}

// NewRoles creates the roles store. permissions is loaded alongside roles by InitializeData.
func NewRoles(api remote.API, notifier notify.Notifier, permissions *Permissions) *Roles {
	return &Roles{base: newBase(api, notifier), permissions: permissions}
}

func (s *Roles) Roles() []users.Role {
	return s.roles.get()
}

func (s *Roles) RolePermissions() []users.Permission {
	return s.rolePermissions.get()
}

// FetchRoles loads data.role. Failures are notified and returned so callers can chain.
func (s *Roles) FetchRoles(ctx context.Context) ([]users.Role, error) {
	defer s.initialising()()

	body, err := s.api.Get(ctx, pathRoles)
	if err == nil {
		var roles []users.Role
		if roles, err = decodeKeyed[users.Role](body, "role"); err == nil {
			s.roles.set(roles)
			return s.roles.get(), nil
		}
	}
	s.roles.set([]users.Role{})
	s.fail("Failed to fetch roles", defaultFailure, err)
	return nil, err
}

func (s *Roles) FetchRole(ctx context.Context, id ID) (*users.Role, result.Result) {
	body, err := s.api.Get(ctx, itemPath(pathRoles, id))
	if err != nil {
		return nil, s.fail("Failed to fetch role", defaultFailure, err)
	}
	role, err := decodeOne[users.Role](body, "role")
	if err != nil {
		return nil, s.fail("Failed to fetch role", defaultFailure, err)
	}
	return role, result.OK()
}

// mutate runs call, announces success and refreshes the roles. A failed refresh fails
// the whole operation.
func (s *Roles) mutate(ctx context.Context, call func() (json.RawMessage, error), success, failure string) (*users.Role, result.Result) {
	defer s.busy()()

	body, err := call()
	if err != nil {
		return nil, s.fail(failure, defaultFailure, err)
	}
	s.succeed(success)
	if _, err := s.FetchRoles(ctx); err != nil {
		return nil, s.fail(failure, defaultFailure, err)
	}
	if body == nil {
		return nil, result.OK()
	}
	role, err := decodeOne[users.Role](body, "role")
	if err != nil {
		return nil, result.OK()
	}
	return role, result.OK()
}

func (s *Roles) CreateRole(ctx context.Context, role users.Role) (*users.Role, result.Result) {
	return s.mutate(ctx, func() (json.RawMessage, error) {
		return s.api.Post(ctx, pathRoles, role)
	}, "Role created successfully!", "Failed to create role")
}

func (s *Roles) UpdateRole(ctx context.Context, id ID, role users.Role) (*users.Role, result.Result) {
	return s.mutate(ctx, func() (json.RawMessage, error) {
		return s.api.Put(ctx, itemPath(pathRoles, id), role)
	}, "Role updated successfully!", "Failed to update role")
}

func (s *Roles) DeleteRole(ctx context.Context, id ID) result.Result {
	_, r := s.mutate(ctx, func() (json.RawMessage, error) {
		_, err := s.api.Delete(ctx, itemPath(pathRoles, id))
		return nil, err
	}, "Role deleted successfully!", "Failed to delete role")
	return r
}

type rolePermissionsResponse struct {
	Role struct {
		Permissions []users.Permission `json:"permissions"`
	} `json:"role"`
}

// FetchRolePermissions loads data.role.permissions for a role.
func (s *Roles) FetchRolePermissions(ctx context.Context, id ID) ([]users.Permission, result.Result) {
	body, err := s.api.Get(ctx, itemPath(pathRoles, id)+"/permissions")
	if err == nil {
		var resp rolePermissionsResponse
		if err = json.Unmarshal(remote.Data(body), &resp); err == nil {
			perms := resp.Role.Permissions
			if perms == nil {
				perms = []users.Permission{}
			}
			s.rolePermissions.set(perms)
			return s.rolePermissions.get(), result.OK()
		}
		err = fmt.Errorf("[Roles FetchRolePermissions] decode: %w", err)
	}
	s.rolePermissions.set([]users.Permission{})
	return nil, s.fail("Failed to fetch role permissions", defaultFailure, err)
}

// refreshRole reloads the role's permissions and the role list together.
func (s *Roles) refreshRole(ctx context.Context, roleID ID) error {
	var g errgroup.Group
	g.Go(func() error {
		s.FetchRolePermissions(ctx, roleID)
		return nil
	})
	g.Go(func() error {
		_, err := s.FetchRoles(ctx)
		return err
	})
	return g.Wait()
}

func rolePermissionPath(roleID, permissionID ID) string {
	return itemPath(pathRoles, roleID) + itemPath(pathPermissions, permissionID)
}

func (s *Roles) AssignPermission(ctx context.Context, roleID, permissionID ID) result.Result {
	defer s.busy()()

	if _, err := s.api.Post(ctx, rolePermissionPath(roleID, permissionID), permissionID); err != nil {
		return s.fail("Failed to assign permission", defaultFailure, err)
	}
	s.succeed("Permission assigned successfully!")
	if err := s.refreshRole(ctx, roleID); err != nil {
		return s.fail("Failed to assign permission", defaultFailure, err)
	}
	return result.OK()
}

func (s *Roles) RevokePermission(ctx context.Context, roleID, permissionID ID) result.Result {
	defer s.busy()()

	if _, err := s.api.Delete(ctx, rolePermissionPath(roleID, permissionID)); err != nil {
		return s.fail("Failed to revoke permission", defaultFailure, err)
	}
	s.succeed("Permission revoked successfully!")
	if err := s.refreshRole(ctx, roleID); err != nil {
		return s.fail("Failed to revoke permission", defaultFailure, err)
	}
	return result.OK()
}

// InitializeData loads roles and permissions together.
func (s *Roles) InitializeData(ctx context.Context) result.Result {
	defer s.initialising()()

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.FetchRoles(ctx)
		return err
	})
	if s.permissions != nil {
		g.Go(func() error {
			s.permissions.FetchPermissions(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.loadFailed(err)
	}
	return result.OK()
}
