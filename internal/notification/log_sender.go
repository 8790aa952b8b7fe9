package notification

import (
	"context"
	"log/slog"
)

// LogSender writes notifications to the log. It backs the log channel and
// stands in for email when no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, n Notification) error {
	msg, err := Render(n.Template, n.Data)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "notification",
		slog.String("channel", string(n.Channel)),
		slog.String("recipient", n.Recipient.String()),
		slog.String("template", n.Template),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
		slog.String("event_id", n.EventID.String()),
	)
	return nil
}
