package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/database"
	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

// MySQLEventRepository persists events in MySQL. Ids are stored as BINARY(16).
// The connection string must enable parseTime.
type MySQLEventRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLEventRepository creates a new MySQLEventRepository.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{
		db:        db,
		txManager: database.NewTxManager(db),
	}
}

// Create inserts a new event.
func (r *MySQLEventRepository) Create(ctx context.Context, event *domain.Event) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return err
	}

	query := `INSERT INTO events (` + eventColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		idBytes,
		string(event.Type),
		string(event.Payload),
		string(event.Status),
		event.RetryCount,
		event.LastError,
		event.CreatedOn.UTC(),
		event.ScheduledOn.UTC(),
		event.ProcessedOn,
		event.UpdatedOn.UTC(),
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrDuplicateEvent
		}
		return apperrors.Wrap(err, "failed to create event")
	}
	return nil
}

// Get retrieves an event by id.
func (r *MySQLEventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	event, err := scanEvent(querier.QueryRowContext(ctx, query, idBytes), scanBinaryUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get event")
	}
	return event, nil
}

// FindOne returns the first event matching the filter in claim order.
func (r *MySQLEventRepository) FindOne(ctx context.Context, filter domain.EventFilter) (*domain.Event, error) {
	filter.Limit = 1
	events, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrEventNotFound
	}
	return events[0], nil
}

// Find returns the events matching the filter ordered by scheduled_on, id.
func (r *MySQLEventRepository) Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := mysqlDialect.whereClause(filter, 0)
	page, args := mysqlDialect.pagination(filter, args)
	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY scheduled_on ASC, id ASC` + page

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find events")
	}
	defer rows.Close() //nolint:errcheck

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows, scanBinaryUUID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan event")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate events")
	}
	return events, nil
}

// Count returns how many events match the filter. Pagination is ignored.
func (r *MySQLEventRepository) Count(ctx context.Context, filter domain.EventFilter) (int, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := mysqlDialect.whereClause(filter, 0)
	query := `SELECT COUNT(*) FROM events` + where

	var count int
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count events")
	}
	return count, nil
}

// Update persists the mutable fields of an event.
func (r *MySQLEventRepository) Update(ctx context.Context, event *domain.Event) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return err
	}

	event.UpdatedOn = time.Now().UTC()
	query := `UPDATE events
			  SET status = ?, retry_count = ?, last_error = ?, scheduled_on = ?,
			      processed_on = ?, updated_on = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		string(event.Status),
		event.RetryCount,
		event.LastError,
		event.ScheduledOn.UTC(),
		event.ProcessedOn,
		event.UpdatedOn,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update event")
	}
	return requireAffected(result)
}

// ClaimNext locks the oldest eligible row, skipping rows held by concurrent
// claimants, and flips it to processing with a conditional update in the same
// transaction.
func (r *MySQLEventRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	retryLimit int,
) (*domain.Event, error) {
	var claimed *domain.Event

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, r.db)

		selectQuery := `SELECT ` + eventColumns + ` FROM events
						WHERE status = ? AND scheduled_on <= ? AND retry_count < ?
						ORDER BY scheduled_on ASC, id ASC
						LIMIT 1
						FOR UPDATE SKIP LOCKED`

		event, err := scanEvent(
			querier.QueryRowContext(ctx, selectQuery, string(domain.StatusPending), now.UTC(), retryLimit),
			scanBinaryUUID,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNoEligibleEvent
			}
			return apperrors.Wrap(err, "failed to select claimable event")
		}

		idBytes, err := event.ID.MarshalBinary()
		if err != nil {
			return err
		}

		updateQuery := `UPDATE events
						SET status = ?, retry_count = retry_count + 1, updated_on = ?
						WHERE id = ? AND status = ?`

		result, err := querier.ExecContext(ctx, updateQuery,
			string(domain.StatusProcessing),
			now.UTC(),
			idBytes,
			string(domain.StatusPending),
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to claim event")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNoEligibleEvent
		}

		event.MarkProcessing()
		event.UpdatedOn = now.UTC()
		claimed = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
