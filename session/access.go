package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/spares-console/permissions"
	"github.com/jrsteele09/spares-console/users"
	"github.com/pkg/errors"
)

// IsAuthenticated holds when both a token and a user are present.
func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Store) HasToken() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token != ""
}

func (s *Store) HasUser() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user != nil
}

func (s *Store) Token() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token
}

// User returns a copy of the loaded user, or nil.
func (s *Store) User() *users.User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user.Clone()
}

func (s *Store) UserRoles() []users.Role {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user.Clone().RoleList()
}

func (s *Store) UserPermissions() []users.Permission {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user.Clone().PermissionList()
}

// UserName is the user's name, falling back to their email.
func (s *Store) UserName() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user.DisplayName()
}

func (s *Store) LastFetched() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastFetched
}

func (s *Store) State() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	switch {
	case s.authenticating > 0:
		return Authenticating
	case s.refreshing > 0:
		return Refreshing
	case s.token != "" && s.user != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Loading reports whether any store operation is in progress.
func (s *Store) Loading() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.busy > 0
}

// TokenExpiry reads the exp claim when the token is a JWT. The signature is not
// checked, the API remains the authority on validity.
func (s *Store) TokenExpiry() (time.Time, bool, error) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false, nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, errors.Wrap(err, "[Store TokenExpiry] token is not a JWT")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "[Store TokenExpiry] invalid exp claim")
	}
	if exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}

func (s *Store) HasPermission(name string) bool {
	return permissions.CheckPermission(s.UserPermissions(), name)
}

func (s *Store) HasRole(name string) bool {
	return permissions.CheckRole(s.UserRoles(), name)
}

func (s *Store) HasAnyPermission(names []string) bool {
	return permissions.CheckAnyPermission(s.UserPermissions(), names)
}

func (s *Store) HasAllPermissions(names []string) bool {
	return permissions.CheckAllPermissions(s.UserPermissions(), names)
}

func (s *Store) HasAnyRole(names []string) bool {
	return permissions.CheckAnyRole(s.UserRoles(), names)
}

func (s *Store) IsAdmin() bool {
	return s.HasRole(users.RoleAdmin)
}

func (s *Store) IsRiskManager() bool {
	return s.HasRole(users.RoleRiskManager)
}
