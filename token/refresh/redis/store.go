// Package refreshredis stores refresh tokens in Redis. Each token is a hash
// holding the JSON record and its expiry in unix milliseconds, with a key TTL
// matching the expiry.
package refreshredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/mealplan-server/token/refresh"
	"github.com/redis/go-redis/v9"
)

const (
	refreshPrefix = "refresh:"
	fieldRecord   = "record"
	fieldExpiry   = "exp"
)

// consumeScript deletes and returns the record only while it is unexpired at
// ARGV[1]; an expired record is left for its key TTL to remove.
const consumeScript = `
local exp = redis.call('HGET', KEYS[1], 'exp')
if not exp then
	return false
end
if tonumber(exp) <= tonumber(ARGV[1]) then
	return false
end
local rec = redis.call('HGET', KEYS[1], 'record')
redis.call('DEL', KEYS[1])
return rec
`

var _ refresh.Store = (*Store)(nil)

type Store struct {
	client  redis.Cmdable
	nowFunc func() time.Time
}

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func NewStore(client redis.Cmdable, options ...Option) *Store {
	s := &Store{client: client, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create writes the record; a token that is already expired is not stored
func (s *Store) Create(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	now := s.nowFunc().UTC()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(refresh.Record{
		Token:     token,
		SubjectID: subjectID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("marshal refresh record: %w", err)
	}
	key := refreshPrefix + token
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldRecord, b, fieldExpiry, expiresAt.UnixMilli())
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Consume runs the expiry check and the delete as one server-side script
func (s *Store) Consume(ctx context.Context, token string) (*refresh.Record, error) {
	now := s.nowFunc().UnixMilli()
	raw, err := s.client.Eval(ctx, consumeScript, []string{refreshPrefix + token}, now).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis consume: %w", err)
	}
	var rec refresh.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal refresh record: %w", err)
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, refreshPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
