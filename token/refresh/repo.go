package refresh

import (
	"context"
	"time"
)

// Record is the server side of a refresh token. The client only ever holds
// Token; the record existing is the sole proof the token is still valid.
type Record struct {
	Token     string    `json:"token"`
	SubjectID string    `json:"subject_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the record is past its expiry at now
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store persists single-use refresh tokens.
//
// Consume must be atomic: of any number of concurrent calls for the same
// token at most one receives the record, and that call is the one that
// removed it. An absent or expired token yields (nil, nil) and mutates
// nothing. Errors are reserved for infrastructure failures.
type Store interface {
	Create(ctx context.Context, subjectID, token string, expiresAt time.Time) error
	Consume(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) error
}
