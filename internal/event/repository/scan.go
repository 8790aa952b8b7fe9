package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// idScanner returns a scan destination for the id column and a function that
// decodes it once the row has been scanned.
type idScanner func() (any, func() (uuid.UUID, error))

func scanUUID() (any, func() (uuid.UUID, error)) {
	var id uuid.UUID
	return &id, func() (uuid.UUID, error) { return id, nil }
}

func scanBinaryUUID() (any, func() (uuid.UUID, error)) {
	var raw []byte
	return &raw, func() (uuid.UUID, error) {
		var id uuid.UUID
		err := id.UnmarshalBinary(raw)
		return id, err
	}
}

func scanEvent(row rowScanner, idScan idScanner) (*domain.Event, error) {
	var (
		event       domain.Event
		eventType   string
		payload     []byte
		status      string
		lastError   sql.NullString
		processedOn sql.NullTime
	)

	idDest, decodeID := idScan()
	err := row.Scan(
		idDest,
		&eventType,
		&payload,
		&status,
		&event.RetryCount,
		&lastError,
		&event.CreatedOn,
		&event.ScheduledOn,
		&processedOn,
		&event.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}

	if event.ID, err = decodeID(); err != nil {
		return nil, err
	}
	event.Type = domain.Type(eventType)
	event.Payload = json.RawMessage(payload)
	event.Status = domain.Status(status)
	if lastError.Valid {
		event.LastError = &lastError.String
	}
	if processedOn.Valid {
		processed := processedOn.Time
		event.ProcessedOn = &processed
	}
	return &event, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
