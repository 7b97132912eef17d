package users

import "context"

// IdentityLookup resolves a subject id to its current identity. A nil identity
// with a nil error means the account is deleted or disabled.
type IdentityLookup interface {
	GetIdentity(ctx context.Context, subjectID string) (*Identity, error)
}

// CredentialChecker verifies login credentials. It returns
// errors.ErrInvalidCredentials for an unknown email or a wrong password.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, password string) (*Identity, error)
}
