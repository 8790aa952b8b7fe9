// Package repository persists platform aggregates in PostgreSQL, MySQL or memory.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/pubflow/internal/database"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/platform/domain"
)

const depositColumns = `id, title, creator_id, community_id, status, openaire_id, updated_at`

// recomputeFollowersQuery is portable between PostgreSQL and MySQL.
const recomputeFollowersQuery = `UPDATE communities SET followers_count = (
			  SELECT COUNT(*) FROM community_followers
			  WHERE community_followers.community_id = communities.id
			  )`

// PostgreSQLPlatformRepository implements platform persistence for PostgreSQL.
type PostgreSQLPlatformRepository struct {
	db *sql.DB
}

// NewPostgreSQLPlatformRepository creates a new PostgreSQLPlatformRepository.
func NewPostgreSQLPlatformRepository(db *sql.DB) *PostgreSQLPlatformRepository {
	return &PostgreSQLPlatformRepository{db: db}
}

// ListStaleDrafts returns the drafts last updated before the given time, oldest first.
func (r *PostgreSQLPlatformRepository) ListStaleDrafts(ctx context.Context, before time.Time) ([]*domain.Deposit, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + depositColumns + ` FROM deposits
			  WHERE status = $1 AND updated_at < $2
			  ORDER BY updated_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, domain.DepositStatusDraft, before.UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stale drafts")
	}
	return scanDeposits(rows)
}

// SetOpenAIREIdentifier stores the OpenAIRE identifier of a harvested deposit.
func (r *PostgreSQLPlatformRepository) SetOpenAIREIdentifier(ctx context.Context, depositID, value string) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `UPDATE deposits SET openaire_id = $1 WHERE id = $2`, value, depositID)
	if err != nil {
		return apperrors.Wrap(err, "failed to set openaire identifier")
	}
	return requireDeposit(result)
}

// RecomputeFollowerCounts refreshes the denormalized follower counter of every
// community and returns the number of communities updated.
func (r *PostgreSQLPlatformRepository) RecomputeFollowerCounts(ctx context.Context) (int64, error) {
	return recomputeFollowers(ctx, database.GetTx(ctx, r.db))
}

func recomputeFollowers(ctx context.Context, querier database.Querier) (int64, error) {
	result, err := querier.ExecContext(ctx, recomputeFollowersQuery)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to recompute follower counts")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

func scanDeposits(rows *sql.Rows) ([]*domain.Deposit, error) {
	defer func() {
		_ = rows.Close()
	}()

	var deposits []*domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.CreatorID,
			&d.CommunityID,
			&d.Status,
			&d.OpenAIREID,
			&d.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan deposit")
		}
		deposits = append(deposits, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate deposits")
	}
	return deposits, nil
}

func requireDeposit(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrDepositNotFound
	}
	return nil
}
