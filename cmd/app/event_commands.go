package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pubflow/cmd/app/commands"
	"github.com/allisson/pubflow/internal/app"
	"github.com/allisson/pubflow/internal/config"
	"github.com/allisson/pubflow/internal/event/producer"
	"github.com/allisson/pubflow/internal/httputil"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getEventCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-event",
			Usage: "Enqueue an event",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "type",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Event type (e.g., UserCreated, HarvesterRun)",
				},
				&cli.StringFlag{
					Name:    "payload",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "JSON object payload",
				},
				&cli.StringFlag{
					Name:    "scheduled-on",
					Aliases: []string{"s"},
					Value:   "",
					Usage:   "RFC 3339 time before which the event is not processed",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				eventUseCase, err := container.EventUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateEvent(
					ctx,
					eventUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("type"),
					cmd.String("payload"),
					cmd.String("scheduled-on"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-events",
			Usage: "List events by status and type",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "status",
					Usage: "Comma separated statuses (pending, processing, processed, failed)",
				},
				&cli.StringFlag{
					Name:  "type",
					Usage: "Comma separated event types",
				},
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Number of events to skip",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: httputil.DefaultLimit,
					Usage: "Maximum number of events to print",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				eventUseCase, err := container.EventUseCase()
				if err != nil {
					return err
				}

				return commands.RunListEvents(
					ctx,
					eventUseCase,
					commands.DefaultIO().Writer,
					cmd.String("status"),
					cmd.String("type"),
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "requeue-event",
			Usage: "Enqueue a fresh copy of a failed event",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Failed event ID (UUID)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				eventUseCase, err := container.EventUseCase()
				if err != nil {
					return err
				}

				return commands.RunRequeueEvent(
					ctx,
					eventUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "process-events",
			Usage: "Process eligible events once and exit",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "ticks",
					Value: 0,
					Usage: "Maximum number of events to process (0 drains the queue)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				poller, err := container.Poller()
				if err != nil {
					return err
				}

				return commands.RunProcessEvents(
					ctx,
					poller,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("ticks")),
				)
			},
		},
		{
			Name:  "run-producer",
			Usage: "Run a periodic producer immediately",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Producer name (" + strings.Join(producer.Names(), ", ") + ")",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				producers, err := container.Producers()
				if err != nil {
					return err
				}

				return commands.RunProducer(
					ctx,
					producers,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
				)
			},
		},
	}
}
