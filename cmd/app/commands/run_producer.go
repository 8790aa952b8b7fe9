package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/allisson/pubflow/internal/event/producer"
)

// ProducerRunner runs a periodic producer by name.
type ProducerRunner interface {
	Run(ctx context.Context, name string) error
}

// RunProducer runs one producer immediately, outside its schedule.
func RunProducer(
	ctx context.Context,
	runner ProducerRunner,
	logger *slog.Logger,
	writer io.Writer,
	name string,
) error {
	if err := runner.Run(ctx, name); err != nil {
		return fmt.Errorf("producer %s failed (known producers: %s): %w",
			name, strings.Join(producer.Names(), ", "), err)
	}

	logger.Info("producer run from cli", slog.String("producer", name))

	_, err := fmt.Fprintf(writer, "Producer %s completed\n", name)
	return err
}
