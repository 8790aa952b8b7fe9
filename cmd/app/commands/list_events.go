package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/http/dto"
	"github.com/allisson/pubflow/internal/event/usecase"
)

// RunListEvents prints events filtered by comma separated statuses and types.
func RunListEvents(
	ctx context.Context,
	eventUseCase usecase.EventUseCase,
	writer io.Writer,
	statuses string,
	types string,
	offset int,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if offset < 0 || limit < 1 {
		return fmt.Errorf("offset must be >= 0 and limit >= 1, got offset=%d limit=%d", offset, limit)
	}

	statusFilter, err := dto.ParseStatuses(statuses)
	if err != nil {
		return err
	}
	typeFilter, err := dto.ParseTypes(types)
	if err != nil {
		return err
	}

	events, err := eventUseCase.List(ctx, domain.EventFilter{
		Statuses: statusFilter,
		Types:    typeFilter,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, dto.MapEventsToListResponse(events, offset, limit))
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tRETRIES\tSCHEDULED ON\tLAST ERROR")
	for _, event := range events {
		lastError := "-"
		if event.LastError != nil {
			lastError = *event.LastError
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			event.ID,
			event.Type,
			event.Status,
			event.RetryCount,
			event.ScheduledOn.Format(time.RFC3339),
			lastError,
		)
	}
	return tw.Flush()
}
