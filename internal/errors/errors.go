package errors

import "errors"

// Common error types for the console
var (
	// Session errors
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrMissingToken        = errors.New("login response did not contain a token")
	ErrUserNotLoaded       = errors.New("user not loaded")
	ErrInvalidOrganisation = errors.New("invalid organisation")

	// Storage errors
	ErrInvalidStorageKey = errors.New("invalid storage key")
	ErrSealedData        = errors.New("sealed data could not be opened")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
