package refresh_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/mealplan-server/internal/config"
	"github.com/jrsteele09/mealplan-server/token/refresh"
	refreshrepofake "github.com/jrsteele09/mealplan-server/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now     time.Time
	store   *refreshrepofake.FakeRefreshTokenRepo
	manager *refresh.Manager
}

func setupTestFixture(t *testing.T, cfg config.Session) *testFixture {
	t.Helper()

	f := &testFixture{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	nowFunc := func() time.Time { return f.now }
	f.store = refreshrepofake.NewFakeRefreshTokenRepo(refreshrepofake.WithNowFunc(nowFunc))
	f.manager = refresh.NewManager(f.store, cfg, refresh.WithNowFunc(nowFunc))
	return f
}

func TestManagerCreate(t *testing.T) {
	f := setupTestFixture(t, config.Session{})
	ctx := context.Background()

	rec, err := f.manager.Create(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rec.Token, 64)
	require.Equal(t, "u1", rec.SubjectID)
	require.Equal(t, f.now, rec.CreatedAt)
	require.Equal(t, f.now.Add(30*24*time.Hour), rec.ExpiresAt)

	stored, ok := f.store.Get(rec.Token)
	require.True(t, ok)
	require.Equal(t, rec.ExpiresAt, stored.ExpiresAt)

	other, err := f.manager.Create(ctx, "u1")
	require.NoError(t, err)
	require.NotEqual(t, rec.Token, other.Token)
	require.Equal(t, 2, f.store.Len())
}

func TestManagerCreateHonoursConfig(t *testing.T) {
	f := setupTestFixture(t, config.Session{RefreshTokenLength: 48, RefreshTokenTTL: time.Hour})

	rec, err := f.manager.Create(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rec.Token, 96)
	require.Equal(t, f.now.Add(time.Hour), rec.ExpiresAt)
}

func TestManagerConsumeIsSingleUse(t *testing.T) {
	f := setupTestFixture(t, config.Session{})
	ctx := context.Background()

	rec, err := f.manager.Create(ctx, "u1")
	require.NoError(t, err)

	got, err := f.manager.Consume(ctx, rec.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "u1", got.SubjectID)

	again, err := f.manager.Consume(ctx, rec.Token)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestManagerConsumeExpired(t *testing.T) {
	f := setupTestFixture(t, config.Session{RefreshTokenTTL: time.Hour})
	ctx := context.Background()

	rec, err := f.manager.Create(ctx, "u1")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	got, err := f.manager.Consume(ctx, rec.Token)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, f.store.Len(), "expired records are left for the collector")
}

func TestManagerEmptyTokenSkipsStore(t *testing.T) {
	f := setupTestFixture(t, config.Session{})
	ctx := context.Background()

	got, err := f.manager.Consume(ctx, "")
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, f.manager.Delete(ctx, ""))
	require.Zero(t, f.store.Calls())
}

func TestManagerDelete(t *testing.T) {
	f := setupTestFixture(t, config.Session{})
	ctx := context.Background()

	rec, err := f.manager.Create(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, f.manager.Delete(ctx, rec.Token))
	require.NoError(t, f.manager.Delete(ctx, rec.Token))

	got, err := f.manager.Consume(ctx, rec.Token)
	require.NoError(t, err)
	require.Nil(t, got)
}
