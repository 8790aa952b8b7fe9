package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pubflow/internal/platform/domain"
	"github.com/allisson/pubflow/internal/testutil"
)

var depositRowColumns = []string{"id", "title", "creator_id", "community_id", "status", "openaire_id", "updated_at"}

func TestPostgreSQLPlatformRepository_ListStaleDrafts(t *testing.T) {
	ctx := context.Background()
	before := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := before.Add(-30 * 24 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLPlatformRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM deposits
			  WHERE status = $1 AND updated_at < $2`)).
			WithArgs("draft", before).
			WillReturnRows(sqlmock.NewRows(depositRowColumns).
				AddRow("d-1", "On Graphs", "u-1", nil, "draft", nil, updated).
				AddRow("d-2", "On Trees", "u-2", "c-1", "draft", nil, updated))

		drafts, err := repo.ListStaleDrafts(ctx, before)
		require.NoError(t, err)
		require.Len(t, drafts, 2)
		assert.Equal(t, "d-1", drafts[0].ID)
		assert.Equal(t, "u-1", drafts[0].CreatorID)
		assert.Nil(t, drafts[0].CommunityID)
		require.NotNil(t, drafts[1].CommunityID)
		assert.Equal(t, "c-1", *drafts[1].CommunityID)
	})

	t.Run("QueryError", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLPlatformRepository(db)

		mock.ExpectQuery("FROM deposits").WillReturnError(errors.New("timeout"))

		_, err := repo.ListStaleDrafts(ctx, before)
		assert.ErrorContains(t, err, "failed to list stale drafts")
	})
}

func TestPostgreSQLPlatformRepository_SetOpenAIREIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLPlatformRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE deposits SET openaire_id = $1 WHERE id = $2`)).
			WithArgs("oai:1", "d-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SetOpenAIREIdentifier(ctx, "d-1", "oai:1"))
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewPostgreSQLPlatformRepository(db)

		mock.ExpectExec("UPDATE deposits").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetOpenAIREIdentifier(ctx, "missing", "oai:1")
		assert.ErrorIs(t, err, domain.ErrDepositNotFound)
	})
}

func TestPostgreSQLPlatformRepository_RecomputeFollowerCounts(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewPostgreSQLPlatformRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE communities SET followers_count`)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	updated, err := repo.RecomputeFollowerCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
}

func TestMySQLPlatformRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ListStaleDrafts", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLPlatformRepository(db)
		before := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = ? AND updated_at < ?`)).
			WithArgs("draft", before).
			WillReturnRows(sqlmock.NewRows(depositRowColumns))

		drafts, err := repo.ListStaleDrafts(ctx, before)
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})

	t.Run("SetOpenAIREIdentifier unchanged value", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLPlatformRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE deposits SET openaire_id = ? WHERE id = ?`)).
			WithArgs("oai:1", "d-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM deposits WHERE id = ?`)).
			WithArgs("d-1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		require.NoError(t, repo.SetOpenAIREIdentifier(ctx, "d-1", "oai:1"))
	})

	t.Run("SetOpenAIREIdentifier missing deposit", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLPlatformRepository(db)

		mock.ExpectExec("UPDATE deposits").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM deposits").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := repo.SetOpenAIREIdentifier(ctx, "missing", "oai:1")
		assert.ErrorIs(t, err, domain.ErrDepositNotFound)
	})

	t.Run("RecomputeFollowerCounts error", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewMySQLPlatformRepository(db)

		mock.ExpectExec("UPDATE communities").WillReturnError(errors.New("lock wait timeout"))

		_, err := repo.RecomputeFollowerCounts(ctx)
		assert.ErrorContains(t, err, "failed to recompute follower counts")
	})
}

func TestMemoryPlatformRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	repo := NewMemoryPlatformRepository()

	repo.SaveDeposit(domain.Deposit{ID: "old", CreatorID: "u-1", Status: "draft", UpdatedAt: now.Add(-20 * 24 * time.Hour)})
	repo.SaveDeposit(domain.Deposit{ID: "older", CreatorID: "u-2", Status: "draft", UpdatedAt: now.Add(-40 * 24 * time.Hour)})
	repo.SaveDeposit(domain.Deposit{ID: "fresh", CreatorID: "u-3", Status: "draft", UpdatedAt: now})
	repo.SaveDeposit(domain.Deposit{ID: "published", CreatorID: "u-4", Status: "published", UpdatedAt: now.Add(-90 * 24 * time.Hour)})

	t.Run("ListStaleDrafts", func(t *testing.T) {
		drafts, err := repo.ListStaleDrafts(ctx, now.Add(-14*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, drafts, 2)
		assert.Equal(t, "older", drafts[0].ID)
		assert.Equal(t, "old", drafts[1].ID)
	})

	t.Run("SetOpenAIREIdentifier", func(t *testing.T) {
		require.NoError(t, repo.SetOpenAIREIdentifier(ctx, "published", "oai:9"))
		d, ok := repo.Deposit("published")
		require.True(t, ok)
		require.NotNil(t, d.OpenAIREID)
		assert.Equal(t, "oai:9", *d.OpenAIREID)

		assert.ErrorIs(t, repo.SetOpenAIREIdentifier(ctx, "nope", "x"), domain.ErrDepositNotFound)
	})

	t.Run("RecomputeFollowerCounts", func(t *testing.T) {
		repo.SaveCommunity(domain.Community{ID: "c-1", FollowersCount: 99})
		repo.SaveCommunity(domain.Community{ID: "c-2"})
		repo.Follow("c-1", "u-1")
		repo.Follow("c-1", "u-2")
		repo.Follow("c-1", "u-2")

		updated, err := repo.RecomputeFollowerCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		c1, _ := repo.Community("c-1")
		c2, _ := repo.Community("c-2")
		assert.Equal(t, 2, c1.FollowersCount)
		assert.Equal(t, 0, c2.FollowersCount)
	})
}
