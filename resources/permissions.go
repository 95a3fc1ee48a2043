package resources

import (
	"context"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
	"github.com/jrsteele09/spares-console/users"
	"github.com/rs/zerolog/log"
)

const pathPermissions = "/permissions"

type Permissions struct {
	base
	permissions guarded[users.Permission]
}

func NewPermissions(api remote.API, notifier notify.Notifier) *Permissions {
	return &Permissions{base: newBase(api, notifier)}
}

func (s *Permissions) Permissions() []users.Permission {
	return s.permissions.get()
}

// FetchPermissions loads data.permission. A failure empties the list and is only logged.
func (s *Permissions) FetchPermissions(ctx context.Context) result.Result {
	defer s.busy()()

	body, err := s.api.Get(ctx, pathPermissions)
	if err == nil {
		var perms []users.Permission
		if perms, err = decodeKeyed[users.Permission](body, "permission"); err == nil {
			s.permissions.set(perms)
			return result.OK()
		}
	}
	log.Err(err).Msg("[Permissions FetchPermissions] error fetching permissions")
	s.permissions.set([]users.Permission{})
	return result.Fail(err)
}

func (s *Permissions) FetchPermission(ctx context.Context, id ID) (*users.Permission, result.Result) {
	defer s.busy()()

	body, err := s.api.Get(ctx, itemPath(pathPermissions, id))
	if err != nil {
		return nil, s.fail("Failed to fetch permissions", defaultFailure, err)
	}
	perm, err := decodeOne[users.Permission](body, "permission")
	if err != nil {
		return nil, s.fail("Failed to fetch permissions", defaultFailure, err)
	}
	return perm, result.OK()
}

// mutate runs call, announces success and then refreshes the list.
func (s *Permissions) mutate(ctx context.Context, call func() error, success, failure string) result.Result {
	defer s.busy()()

	if err := call(); err != nil {
		return s.fail(failure, defaultFailure, err)
	}
	s.succeed(success)
	s.FetchPermissions(ctx)
	return result.OK()
}

func (s *Permissions) CreatePermission(ctx context.Context, perm users.Permission) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Post(ctx, pathPermissions, perm)
		return err
	}, "Permission created successfully!", "Failed to create permission")
}

func (s *Permissions) UpdatePermission(ctx context.Context, id ID, perm users.Permission) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Put(ctx, itemPath(pathPermissions, id), perm)
		return err
	}, "Permission updated successfully!", "Failed to update permission")
}

func (s *Permissions) DeletePermission(ctx context.Context, id ID) result.Result {
	return s.mutate(ctx, func() error {
		_, err := s.api.Delete(ctx, itemPath(pathPermissions, id))
		return err
	}, "Permission deleted successfully!", "Failed to delete permission")
}

func (s *Permissions) InitializeData(ctx context.Context) result.Result {
	defer s.initialising()()
	return s.FetchPermissions(ctx)
}
