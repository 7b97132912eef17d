package refreshrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/mealplan-server/token/refresh"
)

var _ refresh.Store = (*FakeRefreshTokenRepo)(nil)

// FakeRefreshTokenRepo is the in-memory Store used in DEV and in tests
type FakeRefreshTokenRepo struct {
	tokens  map[string]*refresh.Record
	lock    sync.RWMutex
	nowFunc func() time.Time
	calls   int
}

type Option func(*FakeRefreshTokenRepo)

func WithNowFunc(now func() time.Time) Option {
	return func(tr *FakeRefreshTokenRepo) {
		tr.nowFunc = now
	}
}

func NewFakeRefreshTokenRepo(options ...Option) *FakeRefreshTokenRepo {
	tr := &FakeRefreshTokenRepo{
		tokens:  make(map[string]*refresh.Record),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(tr)
	}
	return tr
}

func (tr *FakeRefreshTokenRepo) Create(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.calls++

	tr.tokens[token] = &refresh.Record{
		Token:     token,
		SubjectID: subjectID,
		ExpiresAt: expiresAt,
		CreatedAt: tr.nowFunc().UTC(),
	}
	return nil
}

// Consume looks up and deletes under one lock so concurrent callers cannot
// both see the record.
func (tr *FakeRefreshTokenRepo) Consume(ctx context.Context, token string) (*refresh.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.calls++

	rec, ok := tr.tokens[token]
	if !ok || rec.Expired(tr.nowFunc()) {
		return nil, nil
	}
	delete(tr.tokens, token)
	out := *rec
	return &out, nil
}

func (tr *FakeRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.calls++

	delete(tr.tokens, token)
	return nil
}

// Get returns a copy of the stored record without consuming it
func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.Record, bool) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	rec, ok := tr.tokens[token]
	if !ok {
		return nil, false
	}
	out := *rec
	return &out, true
}

// Len is the number of stored records, expired ones included
func (tr *FakeRefreshTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}

// Calls counts every Create, Consume and Delete made against the store
func (tr *FakeRefreshTokenRepo) Calls() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return tr.calls
}
