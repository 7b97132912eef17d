package refresh

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/mealplan-server/internal/config"
)

// Manager mints refresh tokens and hands them to a Store
type Manager struct {
	store   Store
	config  config.SessionConfig
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc overrides the clock used to stamp expiry
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager
func NewManager(store Store, cfg config.SessionConfig, options ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		config:  cfg,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create generates a new refresh token for subjectID and stores it
func (m *Manager) Create(ctx context.Context, subjectID string) (*Record, error) {
	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	now := m.nowFunc().UTC()
	rec := &Record{
		Token:     hex.EncodeToString(tokenBytes),
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.GetRefreshTokenExpiry()),
	}
	if err := m.store.Create(ctx, rec.SubjectID, rec.Token, rec.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rec, nil
}

// Consume exchanges a refresh token for its record, invalidating it
func (m *Manager) Consume(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, nil
	}
	return m.store.Consume(ctx, token)
}

// Delete removes a refresh token; a missing token is not an error
func (m *Manager) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}
