package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/clipwatch/clipwatch/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(database.NewRepository(db))
	svc.clock = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSubmitAndLeaderboard(t *testing.T) {
	svc := newTestService(t)

	rank, err := svc.Submit("user-a", "2024-06-01", "linux", "1.90.0", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	rank, err = svc.Submit("user-b", "2024-06-01", "darwin", "1.90.0", 7, 70)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	resp, err := svc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, resp.Today, 2)
	assert.Equal(t, "user-b", resp.Today[0].UserID)
	assert.Equal(t, 1, resp.Today[0].Rank)
	assert.Equal(t, "user-a", resp.Today[1].UserID)
	assert.Equal(t, 2, resp.Today[1].Rank)
	assert.Equal(t, "2024-06-01", resp.Date)

	require.Len(t, resp.AllTime, 2)
	assert.Equal(t, "user-b", resp.AllTime[0].UserID)
}

func TestSubmitInvalidatesCache(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Submit("user-a", "2024-06-01", "linux", "1.90.0", 1, 10)
	require.NoError(t, err)

	first, err := svc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, first.Today, 1)

	_, err = svc.Submit("user-b", "2024-06-01", "darwin", "1.90.0", 5, 50)
	require.NoError(t, err)

	second, err := svc.GetLeaderboard(10)
	require.NoError(t, err)
	assert.Len(t, second.Today, 2)
}

func TestGetUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Submit("user-a", "2024-06-01", "linux", "1.90.0", 2, 20)
	require.NoError(t, err)
	_, err = svc.Submit("user-b", "2024-06-01", "darwin", "1.90.0", 7, 70)
	require.NoError(t, err)

	view, err := svc.GetUser("user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Rank)
	assert.Equal(t, 20, view.TotalLinesPasted)
	require.NotNil(t, view.Today)
	assert.Equal(t, 20, view.Today.TotalLinesPasted)

	_, err = svc.GetUser("nobody")
	assert.Error(t, err)
}

func TestSetUsername(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Submit("user-a", "2024-06-01", "linux", "1.90.0", 1, 10)
	require.NoError(t, err)

	require.NoError(t, svc.SetUsername("user-a", "pastemaster"))

	resp, err := svc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, resp.Today, 1)
	assert.Equal(t, "pastemaster", resp.Today[0].Username)
}

func TestGetGlobalStats(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Submit("user-a", "2024-06-01", "linux", "1.90.0", 1, 10)
	require.NoError(t, err)
	_, err = svc.Submit("user-b", "2024-06-01", "darwin", "1.90.0", 2, 30)
	require.NoError(t, err)

	stats, err := svc.GetGlobalStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalPastes)
	assert.Equal(t, 40, stats.TotalLinesPasted)
	assert.Equal(t, 2, stats.ActiveToday)
}

func TestAutoRefreshStopsOnCancel(t *testing.T) {
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartAutoRefresh(ctx, time.Hour)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not exit after cancellation")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10 * time.Millisecond)

	cache.Set("key", "value")
	v, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	time.Sleep(15 * time.Millisecond)

	_, ok = cache.Get("key")
	assert.False(t, ok)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}
