package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gocloud.dev/pubsub"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// pushMessage is the body published for each push notification.
type pushMessage struct {
	UserID   string         `json:"user_id"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
	EventID  uuid.UUID      `json:"event_id"`
}

// PushSender publishes push notifications to a pubsub topic consumed by the
// mobile gateway.
type PushSender struct {
	topic *pubsub.Topic
}

// NewPushSender creates a PushSender publishing to topic.
func NewPushSender(topic *pubsub.Topic) *PushSender {
	return &PushSender{topic: topic}
}

// Send implements Sender.
func (s *PushSender) Send(ctx context.Context, n Notification) error {
	if n.Recipient.UserID == "" {
		return apperrors.Wrap(ErrMissingRecipient, "push requires a user recipient")
	}

	body, err := json.Marshal(pushMessage{
		UserID:   n.Recipient.UserID,
		Template: n.Template,
		Data:     n.Data,
		EventID:  n.EventID,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to encode push message")
	}

	err = s.topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"template": n.Template,
		},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to publish push message")
	}
	return nil
}
