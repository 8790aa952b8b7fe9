// Package notification delivers user-facing notifications over email, push,
// in-app and log channels.
package notification

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// Channel identifies a delivery channel.
type Channel string

// Supported channels.
const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "inapp"
	ChannelLog   Channel = "log"
)

var (
	// ErrUnsupportedChannel indicates no sender is registered for a channel.
	ErrUnsupportedChannel = apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported notification channel")

	// ErrMissingRecipient indicates the recipient kind does not fit the channel,
	// e.g. an in-app notification without a user id.
	ErrMissingRecipient = apperrors.Wrap(apperrors.ErrInvalidInput, "notification recipient missing")
)

// Recipient is either a platform user or a bare address. Email accepts both;
// push and in-app require a user.
type Recipient struct {
	UserID  string
	Address string
}

// UserRecipient returns a Recipient for a platform user.
func UserRecipient(id string) Recipient {
	return Recipient{UserID: id}
}

// AddressRecipient returns a Recipient for a bare email address.
func AddressRecipient(address string) Recipient {
	return Recipient{Address: address}
}

func (r Recipient) String() string {
	if r.UserID != "" {
		return "user:" + r.UserID
	}
	return r.Address
}

// Notification is one message for one recipient on one channel.
type Notification struct {
	Channel   Channel
	Recipient Recipient
	Template  string
	Data      map[string]any
	// EventID is the event that caused the notification, uuid.Nil for direct sends.
	EventID uuid.UUID
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Sender delivers notifications on a single channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, n Notification) error

// Send calls f(ctx, n).
func (f SenderFunc) Send(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
