package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/http/dto"
	"github.com/allisson/pubflow/internal/event/usecase"
)

// RunRequeueEvent enqueues a fresh copy of a failed event.
func RunRequeueEvent(
	ctx context.Context,
	eventUseCase usecase.EventUseCase,
	logger *slog.Logger,
	writer io.Writer,
	id string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	eventID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", id, err)
	}

	event, err := eventUseCase.Requeue(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to requeue event: %w", err)
	}

	logger.Info("event requeued from cli",
		slog.String("failed_event_id", id),
		slog.String("event_id", event.ID.String()),
	)

	if format == "json" {
		return writeJSON(writer, dto.MapEventToResponse(event))
	}

	_, err = fmt.Fprintf(writer, "Failed event %s requeued as %s\n", id, event.ID)
	return err
}
