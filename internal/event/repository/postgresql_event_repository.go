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

// PostgreSQLEventRepository persists events in PostgreSQL.
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQLEventRepository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

// Create inserts a new event.
func (r *PostgreSQLEventRepository) Create(ctx context.Context, event *domain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO events (` + eventColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(ctx, query,
		event.ID,
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
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDuplicateEvent
		}
		return apperrors.Wrap(err, "failed to create event")
	}
	return nil
}

// Get retrieves an event by id.
func (r *PostgreSQLEventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(querier.QueryRowContext(ctx, query, id), scanUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get event")
	}
	return event, nil
}

// FindOne returns the first event matching the filter in claim order.
func (r *PostgreSQLEventRepository) FindOne(
	ctx context.Context,
	filter domain.EventFilter,
) (*domain.Event, error) {
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
func (r *PostgreSQLEventRepository) Find(
	ctx context.Context,
	filter domain.EventFilter,
) ([]*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := postgresDialect.whereClause(filter, 0)
	page, args := postgresDialect.pagination(filter, args)
	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY scheduled_on ASC, id ASC` + page

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find events")
	}
	defer rows.Close() //nolint:errcheck

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows, scanUUID)
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
func (r *PostgreSQLEventRepository) Count(ctx context.Context, filter domain.EventFilter) (int, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := postgresDialect.whereClause(filter, 0)
	query := `SELECT COUNT(*) FROM events` + where

	var count int
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count events")
	}
	return count, nil
}

// Update persists the mutable fields of an event.
func (r *PostgreSQLEventRepository) Update(ctx context.Context, event *domain.Event) error {
	querier := database.GetTx(ctx, r.db)

	event.UpdatedOn = time.Now().UTC()
	query := `UPDATE events
			  SET status = $1, retry_count = $2, last_error = $3, scheduled_on = $4,
			      processed_on = $5, updated_on = $6
			  WHERE id = $7`

	result, err := querier.ExecContext(ctx, query,
		string(event.Status),
		event.RetryCount,
		event.LastError,
		event.ScheduledOn.UTC(),
		event.ProcessedOn,
		event.UpdatedOn,
		event.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update event")
	}
	return requireAffected(result)
}

// ClaimNext atomically moves the oldest eligible event to processing and
// consumes one attempt. Concurrent claimants skip rows locked by each other so
// every event is claimed by exactly one caller.
func (r *PostgreSQLEventRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	retryLimit int,
) (*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE events
			  SET status = $1, retry_count = retry_count + 1, updated_on = $2
			  WHERE id = (
			      SELECT id FROM events
			      WHERE status = $3 AND scheduled_on <= $4 AND retry_count < $5
			      ORDER BY scheduled_on ASC, id ASC
			      LIMIT 1
			      FOR UPDATE SKIP LOCKED
			  )
			  RETURNING ` + eventColumns

	row := querier.QueryRowContext(ctx, query,
		string(domain.StatusProcessing),
		now.UTC(),
		string(domain.StatusPending),
		now.UTC(),
		retryLimit,
	)
	event, err := scanEvent(row, scanUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoEligibleEvent
		}
		return nil, apperrors.Wrap(err, "failed to claim event")
	}
	return event, nil
}
