package auth

import (
	"context"

	"github.com/jrsteele09/mealplan-server/users"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the authenticated identity
func WithIdentity(ctx context.Context, identity users.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the identity attached by the session middleware
func IdentityFrom(ctx context.Context) (users.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(users.Identity)
	return identity, ok
}
