// Package refreshpg stores refresh tokens in PostgreSQL
package refreshpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/mealplan-server/internal/dbx"
	"github.com/jrsteele09/mealplan-server/token/refresh"
)

var _ refresh.Store = (*Store)(nil)

// Store implements refresh.Store over dbx.DBTX (satisfied by *sql.DB or *sql.Tx)
type Store struct {
	db      dbx.DBTX
	nowFunc func() time.Time
}

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(db dbx.DBTX, options ...Option) *Store {
	s := &Store{db: db, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, token, subjectID, expiresAt.UTC(), s.nowFunc().UTC()); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Consume deletes and returns the row in one statement. Postgres row locking
// on DELETE guarantees only one concurrent caller gets RETURNING output.
func (s *Store) Consume(ctx context.Context, token string) (*refresh.Record, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1 AND expires_at > $2
		RETURNING token, user_id, expires_at, created_at
	`
	rec := &refresh.Record{}
	err := s.db.QueryRowContext(ctx, query, token, s.nowFunc().UTC()).
		Scan(&rec.Token, &rec.SubjectID, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := s.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes rows that expired before the given time and reports
// how many went. It is meant for a periodic cleanup job.
func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := s.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
