// Package permissions evaluates role and permission requirements against the records
// loaded for a user. Every predicate is pure and fails closed on missing input.
package permissions

import "github.com/jrsteele09/spares-console/users"

// Named is any record identified by its name.
type Named interface {
	Desc() string
}

var (
	_ Named = users.Role{}
	_ Named = users.Permission{}
)

// Contains reports whether records holds an entry called name. A nil slice is not a list.
func Contains[T Named](records []T, name string) bool {
	if records == nil {
		return false
	}
	for _, r := range records {
		if r.Desc() == name {
			return true
		}
	}
	return false
}

// ContainsAny reports whether at least one of names is held. nil or empty names is false.
func ContainsAny[T Named](records []T, names []string) bool {
	for _, name := range names {
		if Contains(records, name) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every one of names is held. nil names is not a list and
// is false; an empty, non-nil list is vacuously true.
func ContainsAll[T Named](records []T, names []string) bool {
	if names == nil {
		return false
	}
	for _, name := range names {
		if !Contains(records, name) {
			return false
		}
	}
	return true
}

func CheckPermission(perms []users.Permission, name string) bool {
	return Contains(perms, name)
}

func CheckRole(roles []users.Role, name string) bool {
	return Contains(roles, name)
}

func CheckAnyPermission(perms []users.Permission, names []string) bool {
	return ContainsAny(perms, names)
}

func CheckAllPermissions(perms []users.Permission, names []string) bool {
	return ContainsAll(perms, names)
}

func CheckAnyRole(roles []users.Role, names []string) bool {
	return ContainsAny(roles, names)
}

func CheckAllRoles(roles []users.Role, names []string) bool {
	return ContainsAll(roles, names)
}
