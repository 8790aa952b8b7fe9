package handler

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/notification"
)

// ErrRecipientNotFound indicates the payload names none of the route's recipients.
var ErrRecipientNotFound = apperrors.Wrap(apperrors.ErrInvalidInput, "notification recipient not found")

// RecipientKind tells how a payload value identifies a recipient.
type RecipientKind int

const (
	// RecipientUser values are platform user ids.
	RecipientUser RecipientKind = iota
	// RecipientAddress values are email addresses and only reach the email channel.
	RecipientAddress
)

// RecipientPath locates recipients in a payload. The value at Path may be a
// single id or an array of ids.
type RecipientPath struct {
	Path string
	Kind RecipientKind
}

// NotificationRoute describes who is notified, how, and with which template
// when an event of Type is processed.
type NotificationRoute struct {
	Type       domain.Type
	Template   string
	Channels   []notification.Channel
	Recipients []RecipientPath
}

// NotificationHandler turns an event into one notification per recipient and
// channel.
type NotificationHandler struct {
	route    NotificationRoute
	notifier notification.Notifier
}

// NewNotificationHandler creates a NotificationHandler for route.
func NewNotificationHandler(route NotificationRoute, notifier notification.Notifier) *NotificationHandler {
	return &NotificationHandler{route: route, notifier: notifier}
}

// Handle implements domain.Handler. Delivery stops at the first failed
// notification; a retry sends the whole batch again.
func (h *NotificationHandler) Handle(ctx context.Context, event *domain.Event) error {
	recipients := h.recipients(event.Payload)
	if len(recipients) == 0 {
		return apperrors.Wrapf(ErrRecipientNotFound, "%s has no recipient in its payload", event.Type)
	}

	data := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &data); err != nil {
			return apperrors.Wrap(domain.ErrInvalidPayload, err.Error())
		}
	}

	for _, recipient := range recipients {
		for _, channel := range h.route.Channels {
			if recipient.UserID == "" && channel != notification.ChannelEmail {
				continue
			}
			err := h.notifier.Notify(ctx, notification.Notification{
				Channel:   channel,
				Recipient: recipient,
				Template:  h.route.Template,
				Data:      data,
				EventID:   event.ID,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *NotificationHandler) recipients(payload json.RawMessage) []notification.Recipient {
	seen := make(map[notification.Recipient]struct{})
	var recipients []notification.Recipient

	add := func(kind RecipientKind, value gjson.Result) {
		id := value.String()
		if id == "" {
			return
		}
		recipient := notification.UserRecipient(id)
		if kind == RecipientAddress {
			recipient = notification.AddressRecipient(id)
		}
		if _, dup := seen[recipient]; dup {
			return
		}
		seen[recipient] = struct{}{}
		recipients = append(recipients, recipient)
	}

	for _, rp := range h.route.Recipients {
		value := gjson.GetBytes(payload, rp.Path)
		if !value.Exists() {
			continue
		}
		if value.IsArray() {
			value.ForEach(func(_, item gjson.Result) bool {
				add(rp.Kind, item)
				return true
			})
			continue
		}
		add(rp.Kind, value)
	}
	return recipients
}
