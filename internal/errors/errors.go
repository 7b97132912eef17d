package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session core
var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user is disabled")

	// Role errors
	ErrInvalidRole = errors.New("invalid role")
	ErrRoleChanged = errors.New("role changed since token issue")

	// Store errors
	ErrStoreNotConfigured = errors.New("store not configured")
	ErrStoreTimeout       = errors.New("store call timed out")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
