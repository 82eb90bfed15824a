package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	apperrors "github.com/Lava-10/knowMoreQR/pkg/errors"
)

// fakeCatalog is an in-memory CatalogRepository that counts calls.
type fakeCatalog struct {
	entries      []domain.CatalogEntry
	getCalls     int
	listCalls    int
	getManyCalls int
	lastMany     []string
	err          error
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*domain.CatalogEntry, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, apperrors.NotFound("tag", id)
}

func (f *fakeCatalog) List(context.Context) ([]domain.CatalogEntry, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.CatalogEntry{}, f.entries...), nil
}

func (f *fakeCatalog) GetMany(_ context.Context, ids []string) ([]domain.CatalogEntry, error) {
	f.getManyCalls++
	f.lastMany = append([]string{}, ids...)
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.CatalogEntry{}
	for _, id := range ids {
		for _, e := range f.entries {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func sampleEntries() []domain.CatalogEntry {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.CatalogEntry{
		{ID: "t1", Name: "Blue Sweater", Series: "Autumn", UnitPrice: decimal.RequireFromString("49.99"), CarbonFootprint: 20, CreatedAt: created},
		{ID: "t2", Name: "Green Jacket", Series: "Outdoor", UnitPrice: decimal.RequireFromString("120"), CarbonFootprint: 75, CreatedAt: created},
	}
}

func setupCache(t *testing.T) (*CatalogCache, *fakeCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	inner := &fakeCatalog{entries: sampleEntries()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCatalogCache(inner, client, 10*time.Minute, logger), inner, mr
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCatalogCache_Get_ReadThrough(t *testing.T) {
	cache, inner, mr := setupCache(t)
	ctx := context.Background()

	first, err := cache.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Sweater", first.Name)
	assert.True(t, mr.Exists("catalog:tag:t1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("catalog:tag:t1"))

	second, err := cache.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, first.UnitPrice.Equal(second.UnitPrice))
	assert.Equal(t, 1, inner.getCalls)
}

func TestCatalogCache_Get_NotFoundIsNotCached(t *testing.T) {
	cache, inner, mr := setupCache(t)

	_, err := cache.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, mr.Exists("catalog:tag:missing"))

	_, _ = cache.Get(context.Background(), "missing")
	assert.Equal(t, 2, inner.getCalls)
}

func TestCatalogCache_Get_CorruptValueFallsBack(t *testing.T) {
	cache, inner, mr := setupCache(t)
	require.NoError(t, mr.Set("catalog:tag:t1", "{{not-json"))

	got, err := cache.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Sweater", got.Name)
	assert.Equal(t, 1, inner.getCalls)
}

func TestCatalogCache_Get_RedisDownServesFromStore(t *testing.T) {
	cache, inner, mr := setupCache(t)
	mr.Close()

	got, err := cache.Get(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, "Green Jacket", got.Name)
	assert.Equal(t, 1, inner.getCalls)
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestCatalogCache_List_CachedAfterFirstCall(t *testing.T) {
	cache, inner, mr := setupCache(t)
	ctx := context.Background()

	first, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	raw, err := mr.Get("catalog:all")
	require.NoError(t, err)
	var stored []domain.CatalogEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Len(t, stored, 2)

	second, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", second[0].ID)
	assert.Equal(t, "t2", second[1].ID)
	assert.Equal(t, 1, inner.listCalls)
}

func TestCatalogCache_List_StoreError(t *testing.T) {
	cache, inner, _ := setupCache(t)
	inner.err = errors.New("db down")

	_, err := cache.List(context.Background())
	assert.EqualError(t, err, "db down")
}

// ---------------------------------------------------------------------------
// GetMany
// ---------------------------------------------------------------------------

func TestCatalogCache_GetMany_LoadsOnlyMisses(t *testing.T) {
	cache, inner, _ := setupCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "t2")
	require.NoError(t, err)

	got, err := cache.GetMany(ctx, []string{"t2", "gone", "t1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, "t1", got[1].ID)
	assert.Equal(t, []string{"gone", "t1"}, inner.lastMany)

	inner.getManyCalls = 0
	_, err = cache.GetMany(ctx, []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Zero(t, inner.getManyCalls)
}

func TestCatalogCache_GetMany_Empty(t *testing.T) {
	cache, inner, _ := setupCache(t)

	got, err := cache.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, inner.getManyCalls)
}

// ---------------------------------------------------------------------------
// Invalidate
// ---------------------------------------------------------------------------

func TestCatalogCache_Invalidate(t *testing.T) {
	cache, _, mr := setupCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "t1")
	require.NoError(t, err)
	_, err = cache.List(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "t1"))
	assert.False(t, mr.Exists("catalog:tag:t1"))
	assert.False(t, mr.Exists("catalog:all"))
}
