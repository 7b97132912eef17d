package refreshredis_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	refreshredis "github.com/jrsteele09/mealplan-server/token/refresh/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseInt(t *testing.T, s string) int64 {
	t.Helper()
	n, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return n
}

type testFixture struct {
	mr    *miniredis.Miniredis
	now   time.Time
	store *refreshredis.Store
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := refreshredis.NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	f := &testFixture{mr: mr, now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.store = refreshredis.NewStore(client, refreshredis.WithNowFunc(func() time.Time { return f.now }))
	return f
}

func TestCreateSetsKeyTTL(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))
	require.True(t, f.mr.Exists("refresh:tok"))
	require.Equal(t, time.Hour, f.mr.TTL("refresh:tok"))
	require.Equal(t, f.now.Add(time.Hour).UnixMilli(), mustParseInt(t, f.mr.HGet("refresh:tok", "exp")))
}

func TestConsumeOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	rec, err := f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "u1", rec.SubjectID)
	require.Equal(t, f.now.Add(time.Hour), rec.ExpiresAt)
	require.False(t, f.mr.Exists("refresh:tok"))

	rec, err = f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestConsumeAfterKeyExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	f.mr.FastForward(time.Hour)
	rec, err := f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestConsumeRecordPastExpiryByClock(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	f.now = f.now.Add(2 * time.Hour)
	rec, err := f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, rec)
	require.True(t, f.mr.Exists("refresh:tok"), "an expired record is not mutated by Consume")
}

func TestConsumeAtExactExpiry(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	f.now = f.now.Add(time.Hour)
	rec, err := f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, rec)

	f.now = f.now.Add(-time.Millisecond)
	rec, err = f.store.Consume(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "u1", rec.SubjectID)
}

func TestCreateAlreadyExpired(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.store.Create(context.Background(), "u1", "tok", f.now.Add(-time.Second)))
	require.False(t, f.mr.Exists("refresh:tok"))
}

func TestDelete(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	require.NoError(t, f.store.Delete(ctx, "tok"))
	require.NoError(t, f.store.Delete(ctx, "tok"))
	require.False(t, f.mr.Exists("refresh:tok"))
}

func TestConcurrentConsume(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Create(ctx, "u1", "tok", f.now.Add(time.Hour)))

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		winners atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rec, err := f.store.Consume(ctx, "tok")
			assert.NoError(t, err)
			if rec != nil {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	require.Equal(t, int32(1), winners.Load())
}

func TestServerDown(t *testing.T) {
	f := setupTestFixture(t)
	f.mr.Close()

	_, err := f.store.Consume(context.Background(), "tok")
	require.Error(t, err)
}
