package cache

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePortfolio() portfolios.Portfolio {
	publishedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return portfolios.Portfolio{
		ID:          "portfolio-1",
		OwnerID:     "user-1",
		Name:        "Demo",
		Slug:        "demo-abc",
		Sections:    sections.Insert(nil, sections.Create(sections.TypeHero, 0, sections.NewUUIDSource())),
		Theme:       portfolios.DefaultTheme(),
		Settings:    portfolios.DefaultSettings("Demo"),
		Status:      portfolios.StatusPublished,
		Version:     2,
		CreatedAt:   publishedAt.Add(-time.Hour),
		UpdatedAt:   publishedAt,
		PublishedAt: &publishedAt,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)
	portfolio := samplePortfolio()

	_, found, err := store.Get(ctx, portfolio.Slug)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, portfolio))
	cached, found, err := store.Get(ctx, portfolio.Slug)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, portfolio.ID, cached.ID)
	assert.Equal(t, portfolio.Version, cached.Version)
	require.Len(t, cached.Sections, 1)
	assert.IsType(t, &sections.HeroData{}, cached.Sections[0].Data)

	require.NoError(t, store.Invalidate(ctx, portfolio.Slug))
	_, found, err = store.Get(ctx, portfolio.Slug)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryEntriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)
	require.NoError(t, store.Set(ctx, samplePortfolio()))

	first, _, err := store.Get(ctx, "demo-abc")
	require.NoError(t, err)
	first.Sections[0].Data.(*sections.HeroData).Name = "Changed"

	second, _, err := store.Get(ctx, "demo-abc")
	require.NoError(t, err)
	assert.Equal(t, sections.DefaultHeroName, second.Sections[0].Data.(*sections.HeroData).Name)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	portfolio := samplePortfolio()
	raw, err := encode(portfolio)
	require.NoError(t, err)
	key := publishedKey(portfolio.Slug)

	t.Run("set stores encoded portfolio with ttl", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := NewRedis(client, time.Minute)
		mock.ExpectSet(key, raw, time.Minute).SetVal("OK")

		assert.NoError(t, store.Set(ctx, portfolio))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get decodes hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := NewRedis(client, time.Minute)
		mock.ExpectGet(key).SetVal(string(raw))

		cached, found, err := store.Get(ctx, portfolio.Slug)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, portfolio.Name, cached.Name)
		assert.Equal(t, portfolio.Status, cached.Status)
	})

	t.Run("get reports miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := NewRedis(client, time.Minute)
		mock.ExpectGet(key).RedisNil()

		_, found, err := store.Get(ctx, portfolio.Slug)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("get surfaces redis errors", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := NewRedis(client, time.Minute)
		mock.ExpectGet(key).SetErr(redis.ErrClosed)

		_, _, err := store.Get(ctx, portfolio.Slug)
		assert.ErrorIs(t, err, redis.ErrClosed)
	})

	t.Run("invalidate deletes key", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := NewRedis(client, time.Minute)
		mock.ExpectDel(key).SetVal(1)

		assert.NoError(t, store.Invalidate(ctx, portfolio.Slug))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoopNeverHits(t *testing.T) {
	ctx := context.Background()
	var store Noop
	require.NoError(t, store.Set(ctx, samplePortfolio()))
	_, found, err := store.Get(ctx, "demo-abc")
	require.NoError(t, err)
	assert.False(t, found)
}
