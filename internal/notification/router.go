package notification

import (
	"context"
	"log/slog"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// Router is a Notifier that hands each notification to the sender registered
// for its channel.
type Router struct {
	senders map[Channel]Sender
	logger  *slog.Logger
}

// NewRouter creates an empty Router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		senders: make(map[Channel]Sender),
		logger:  logger,
	}
}

// Register sets the sender of a channel, replacing any previous one.
func (r *Router) Register(channel Channel, sender Sender) {
	r.senders[channel] = sender
}

// Notify implements Notifier.
func (r *Router) Notify(ctx context.Context, n Notification) error {
	sender, ok := r.senders[n.Channel]
	if !ok {
		return apperrors.Wrapf(ErrUnsupportedChannel, "channel %q", n.Channel)
	}

	if err := sender.Send(ctx, n); err != nil {
		return apperrors.Wrapf(err, "failed to send %s notification %q to %s", n.Channel, n.Template, n.Recipient)
	}

	r.logger.Debug("notification sent",
		slog.String("channel", string(n.Channel)),
		slog.String("template", n.Template),
		slog.String("recipient", n.Recipient.String()),
		slog.String("event_id", n.EventID.String()),
	)
	return nil
}
