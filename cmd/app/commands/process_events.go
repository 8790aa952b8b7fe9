package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Ticker processes at most one event per call and reports whether it did.
type Ticker interface {
	Tick(ctx context.Context) (bool, error)
}

// RunProcessEvents drains the queue by ticking until no event is eligible or
// maxTicks ticks ran. maxTicks <= 0 means no bound.
func RunProcessEvents(
	ctx context.Context,
	ticker Ticker,
	logger *slog.Logger,
	writer io.Writer,
	maxTicks int,
) error {
	processed := 0
	for maxTicks <= 0 || processed < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := ticker.Tick(ctx)
		if err != nil {
			return fmt.Errorf("failed to process events after %d event(s): %w", processed, err)
		}
		if !ok {
			break
		}
		processed++
	}

	logger.Info("event processing finished", slog.Int("processed", processed))

	_, err := fmt.Fprintf(writer, "Processed %d event(s)\n", processed)
	return err
}
