package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/http/dto"
	"github.com/allisson/pubflow/internal/event/usecase"
)

// RunCreateEvent enqueues one event. payload is a JSON object and may be empty;
// scheduledOn is RFC 3339 and may be empty for "now".
func RunCreateEvent(
	ctx context.Context,
	eventUseCase usecase.EventUseCase,
	logger *slog.Logger,
	writer io.Writer,
	eventType string,
	payload string,
	scheduledOn string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	input := usecase.EnqueueInput{
		Type:    domain.Type(eventType),
		Payload: json.RawMessage(payload),
	}

	if scheduledOn != "" {
		at, err := time.Parse(time.RFC3339, scheduledOn)
		if err != nil {
			return fmt.Errorf("invalid scheduled-on %q: expected RFC 3339: %w", scheduledOn, err)
		}
		input.ScheduledOn = &at
	}

	event, err := eventUseCase.Enqueue(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	logger.Info("event created",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type.String()),
	)

	if format == "json" {
		return writeJSON(writer, dto.MapEventToResponse(event))
	}

	_, err = fmt.Fprintf(writer, "Event %s (%s) enqueued, scheduled on %s\n",
		event.ID, event.Type, event.ScheduledOn.Format(time.RFC3339))
	return err
}
