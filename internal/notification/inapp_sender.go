package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/database"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

const insertInAppPostgres = `INSERT INTO in_app_notifications (id, user_id, template, data, event_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

const insertInAppMySQL = `INSERT INTO in_app_notifications (id, user_id, template, data, event_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

// InAppSender stores notifications in the in_app_notifications table read by
// the platform inbox.
type InAppSender struct {
	db     *sql.DB
	query  string
	binary bool
	now    func() time.Time
}

// NewPostgreSQLInAppSender creates an InAppSender for PostgreSQL.
func NewPostgreSQLInAppSender(db *sql.DB) *InAppSender {
	return &InAppSender{db: db, query: insertInAppPostgres, now: time.Now}
}

// NewMySQLInAppSender creates an InAppSender for MySQL, where ids are BINARY(16).
func NewMySQLInAppSender(db *sql.DB) *InAppSender {
	return &InAppSender{db: db, query: insertInAppMySQL, binary: true, now: time.Now}
}

// Send implements Sender.
func (s *InAppSender) Send(ctx context.Context, n Notification) error {
	if n.Recipient.UserID == "" {
		return apperrors.Wrap(ErrMissingRecipient, "in-app notification requires a user recipient")
	}

	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode notification data")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return apperrors.Wrap(err, "failed to generate notification id")
	}

	querier := database.GetTx(ctx, s.db)
	_, err = querier.ExecContext(ctx, s.query,
		s.uuidArg(id),
		n.Recipient.UserID,
		n.Template,
		string(payload),
		s.uuidArg(n.EventID),
		s.now().UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to store in-app notification")
	}
	return nil
}

func (s *InAppSender) uuidArg(id uuid.UUID) any {
	if s.binary {
		b, _ := id.MarshalBinary()
		return b
	}
	return id
}
