// Package userspg reads session identities and login credentials from the
// users table created by internal/migrations. Account management writes to the
// table elsewhere; this package only queries it.
package userspg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/mealplan-server/internal/dbx"
	apperrors "github.com/jrsteele09/mealplan-server/internal/errors"
	"github.com/jrsteele09/mealplan-server/users"
)

var (
	_ users.IdentityLookup    = (*Repository)(nil)
	_ users.CredentialChecker = (*Repository)(nil)
)

type Repository struct {
	db dbx.DBTX
}

func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

// GetIdentity returns nil for a missing or disabled user
func (r *Repository) GetIdentity(ctx context.Context, subjectID string) (*users.Identity, error) {
	query := `
		SELECT id, role, disabled
		FROM users
		WHERE id = $1
	`
	var (
		id       string
		role     string
		disabled bool
	)
	if err := r.db.QueryRowContext(ctx, query, subjectID).Scan(&id, &role, &disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if disabled {
		return nil, nil
	}
	parsed, err := users.ParseRole(role)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRole, "user %s", id)
	}
	return &users.Identity{ID: id, Role: parsed}, nil
}

func (r *Repository) CheckCredentials(ctx context.Context, email, password string) (*users.Identity, error) {
	query := `
		SELECT id, role, password_hash, disabled
		FROM users
		WHERE lower(email) = lower($1)
	`
	var (
		id       string
		role     string
		hash     string
		disabled bool
	)
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&id, &role, &hash, &disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			users.CheckPasswordMissingUser(password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !users.CheckPasswordHash(password, hash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if disabled {
		return nil, apperrors.ErrUserDisabled
	}
	parsed, err := users.ParseRole(role)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRole, "user %s", id)
	}
	return &users.Identity{ID: id, Role: parsed}, nil
}
