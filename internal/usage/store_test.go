package usage

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store, err := NewStore(db, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	records := []*Record{
		{RequestID: "req-1", Provider: "luma", Model: "photon-1", Endpoint: "images/generations", Images: 1, LatencyMs: 5200, Status: "ok"},
		{RequestID: "req-2", Provider: "runway", Model: "gen4_image", Endpoint: "images/generations", Images: 0, LatencyMs: 120000, Status: "IMG_PROVIDER_TIMEOUT"},
		{RequestID: "req-3", Provider: "luma", Model: "photon-flash-1", Endpoint: "images/generations", Images: 2, LatencyMs: 3100, Status: "ok"},
	}
	for _, rec := range records {
		require.NoError(t, store.Record(ctx, rec))
	}

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
	// CreatedAt 自动填充
	for _, rec := range recent {
		assert.False(t, rec.CreatedAt.IsZero())
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, &Record{Provider: "openai", Status: "ok"}))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestStore_CountByProvider(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Record{Provider: "luma", Status: "ok"}))
	require.NoError(t, store.Record(ctx, &Record{Provider: "luma", Status: "ok"}))
	require.NoError(t, store.Record(ctx, &Record{Provider: "ideogram", Status: "ok"}))

	count, err := store.CountByProvider(ctx, "luma")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = store.CountByProvider(ctx, "stability")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
