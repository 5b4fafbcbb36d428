package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedDigest/internal/config"
	"FeedDigest/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	repo, err := Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Migrate(ctx))
	return repo
}

// stubClock makes Save stamp records with the given instants in order.
func stubClock(repo *Repository, instants ...time.Time) {
	i := 0
	repo.now = func() time.Time {
		at := instants[i]
		if i < len(instants)-1 {
			i++
		}
		return at
	}
}

func summaryFor(n int) domain.Summary {
	return domain.NewSummary(domain.Article{
		URL:        fmt.Sprintf("https://news.example.com/item/%d", n),
		SourceName: "Example News",
		Content:    fmt.Sprintf("full text of item %d", n),
	}, fmt.Sprintf("summary %d", n), "test-model")
}

func TestSaveStoresSummaryAndContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	stubClock(repo, at)

	saved, err := repo.Save(ctx, summaryFor(1))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.True(t, at.Equal(saved.CreatedAt))

	exists, err := repo.Exists(ctx, "https://news.example.com/item/1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "https://news.example.com/item/2")
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := repo.OriginalContent(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, content.SummaryID)
	assert.Equal(t, "full text of item 1", content.ContentText)
}

func TestSaveDuplicateURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Save(ctx, summaryFor(1))
	require.NoError(t, err)

	dup := summaryFor(1)
	dup.Record.SummaryText = "another take"
	_, err = repo.Save(ctx, dup)
	require.ErrorIs(t, err, domain.ErrDuplicate)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Summaries)
	assert.Equal(t, int64(1), stats.OriginalContent)
}

func TestListCreatedBetween(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)

	yesterday := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	stubClock(repo, yesterday, morning, noon, tomorrow)

	for n := 1; n <= 4; n++ {
		_, err := repo.Save(ctx, summaryFor(n))
		require.NoError(t, err)
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records, err := repo.ListCreatedBetween(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "summary 3", records[0].SummaryText)
	assert.Equal(t, "summary 2", records[1].SummaryText)
	assert.Equal(t, "Example News", records[0].SourceName)
	assert.Equal(t, "test-model", records[0].ModelUsed)
	assert.True(t, noon.Equal(records[0].CreatedAt))

	open, err := repo.ListCreatedBetween(ctx, day, time.Time{})
	require.NoError(t, err)
	assert.Len(t, open, 3)

	none, err := repo.ListCreatedBetween(ctx, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteCreatedSinceCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)

	old := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	stubClock(repo, old, recent, recent)

	for n := 1; n <= 3; n++ {
		_, err := repo.Save(ctx, summaryFor(n))
		require.NoError(t, err)
	}

	cutoff := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	n, err := repo.CountCreatedSince(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := repo.DeleteCreatedSince(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Summaries)
	assert.Equal(t, int64(1), stats.OriginalContent)

	exists, err := repo.Exists(ctx, "https://news.example.com/item/1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStatsAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)

	for n := 1; n <= 2; n++ {
		_, err := repo.Save(ctx, summaryFor(n))
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"original_contents", "summaries"}, stats.Tables)
	assert.Equal(t, int64(2), stats.Summaries)
	assert.Equal(t, int64(2), stats.OriginalContent)

	require.NoError(t, repo.Reset(ctx))

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"original_contents", "summaries"}, stats.Tables)
	assert.Zero(t, stats.Summaries)
	assert.Zero(t, stats.OriginalContent)

	_, err = repo.Save(ctx, summaryFor(1))
	require.NoError(t, err, "reset must leave a usable schema")
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx))
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.Tables)
	assert.Zero(t, stats.Summaries)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

func TestPlaceholdersFollowDialect(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		config.DriverPostgres: "SELECT 1 FROM summaries WHERE source_url = $1 AND created_at >= $2",
		config.DriverSQLite:   "SELECT 1 FROM summaries WHERE source_url = ? AND created_at >= ?",
	}
	for driver, want := range cases {
		// Statements are only built here, the pool is never dialed.
		repo := New(sqlx.NewDb(nil, driver), driver)

		query, args, err := repo.sb.Select("1").From(summariesTable).
			Where(sq.Eq{"source_url": "https://news.example.com/item/1"}).
			Where(sq.GtOrEq{"created_at": time.Unix(0, 0).UTC()}).
			ToSql()
		require.NoError(t, err)
		assert.Equal(t, want, query, driver)
		assert.Len(t, args, 2)
	}
}
