package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/pubflow/internal/database"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/platform/domain"
)

// MySQLPlatformRepository implements platform persistence for MySQL.
type MySQLPlatformRepository struct {
	db *sql.DB
}

// NewMySQLPlatformRepository creates a new MySQLPlatformRepository.
func NewMySQLPlatformRepository(db *sql.DB) *MySQLPlatformRepository {
	return &MySQLPlatformRepository{db: db}
}

// ListStaleDrafts returns the drafts last updated before the given time, oldest first.
func (r *MySQLPlatformRepository) ListStaleDrafts(ctx context.Context, before time.Time) ([]*domain.Deposit, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + depositColumns + ` FROM deposits
			  WHERE status = ? AND updated_at < ?
			  ORDER BY updated_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, domain.DepositStatusDraft, before.UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stale drafts")
	}
	return scanDeposits(rows)
}

// SetOpenAIREIdentifier stores the OpenAIRE identifier of a harvested deposit.
// MySQL reports zero affected rows when the value is unchanged, so a miss is
// confirmed with a lookup before returning ErrDepositNotFound.
func (r *MySQLPlatformRepository) SetOpenAIREIdentifier(ctx context.Context, depositID, value string) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `UPDATE deposits SET openaire_id = ? WHERE id = ?`, value, depositID)
	if err != nil {
		return apperrors.Wrap(err, "failed to set openaire identifier")
	}
	if err := requireDeposit(result); err == nil || !apperrors.Is(err, domain.ErrDepositNotFound) {
		return err
	}

	var exists int
	err = querier.QueryRowContext(ctx, `SELECT 1 FROM deposits WHERE id = ?`, depositID).Scan(&exists)
	if apperrors.Is(err, sql.ErrNoRows) {
		return domain.ErrDepositNotFound
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to look up deposit")
	}
	return nil
}

// RecomputeFollowerCounts refreshes the denormalized follower counter of every
// community and returns the number of communities changed.
func (r *MySQLPlatformRepository) RecomputeFollowerCounts(ctx context.Context) (int64, error) {
	return recomputeFollowers(ctx, database.GetTx(ctx, r.db))
}
