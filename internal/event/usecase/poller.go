package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/metrics"
)

// PollerConfig holds poller configuration.
type PollerConfig struct {
	// Interval is the delay between two ticks.
	Interval time.Duration
	// RetryLimit is the number of attempts an event gets before it fails.
	RetryLimit int
	// HandlerTimeout bounds one handler call. Zero disables the bound.
	HandlerTimeout time.Duration
}

// ErrInvalidPollerConfig indicates a poll interval or retry limit that would
// panic the ticker or leave events pending forever.
var ErrInvalidPollerConfig = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid poller config")

// Poller claims at most one eligible event per tick and drives it through the
// state machine. Handlers run synchronously, so one poller never has more than
// one event in flight.
type Poller struct {
	config    PollerConfig
	eventRepo EventRepository
	handlers  HandlerLookup
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewPoller creates a Poller. Interval must be positive and RetryLimit at least 1.
func NewPoller(
	config PollerConfig,
	eventRepo EventRepository,
	handlers HandlerLookup,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) (*Poller, error) {
	if config.Interval <= 0 {
		return nil, apperrors.Wrapf(ErrInvalidPollerConfig, "interval must be positive, got %s", config.Interval)
	}
	if config.RetryLimit < 1 {
		return nil, apperrors.Wrapf(ErrInvalidPollerConfig, "retry limit must be at least 1, got %d", config.RetryLimit)
	}
	if config.HandlerTimeout < 0 {
		return nil, apperrors.Wrapf(ErrInvalidPollerConfig, "handler timeout must not be negative, got %s", config.HandlerTimeout)
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Poller{
		config:    config,
		eventRepo: eventRepo,
		handlers:  handlers,
		metrics:   businessMetrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start runs ticks until ctx is cancelled. Tick errors are logged and the next
// tick retries.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("starting event poller",
		slog.Duration("interval", p.config.Interval),
		slog.Int("retry_limit", p.config.RetryLimit),
		slog.Duration("handler_timeout", p.config.HandlerTimeout),
	)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping event poller")
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Tick(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("event poller tick failed", slog.Any("error", err))
			}
		}
	}
}

// Tick claims and processes at most one event. It reports whether an event was
// claimed. A returned error means the store failed; the event, if claimed,
// keeps whatever state was last persisted.
func (p *Poller) Tick(ctx context.Context) (bool, error) {
	// A claim consumes an attempt, so none is taken once shutdown has begun.
	if err := ctx.Err(); err != nil {
		return false, err
	}

	event, err := p.eventRepo.ClaimNext(ctx, p.now(), p.config.RetryLimit)
	if err != nil {
		if apperrors.Is(err, domain.ErrNoEligibleEvent) {
			return false, nil
		}
		return false, err
	}

	start := time.Now()
	logger := p.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type.String()),
		slog.Int("retry_count", event.RetryCount),
	)
	logger.Info("event claimed")

	outcome, err := p.process(ctx, event, logger)

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordEventOutcome(ctx, event.Type.String(), outcome)
	p.metrics.RecordOperation(ctx, "events", "event_process", outcome)
	p.metrics.RecordDuration(ctx, "events", "event_process", time.Since(start), status)

	return true, err
}

func (p *Poller) process(ctx context.Context, event *domain.Event, logger *slog.Logger) (string, error) {
	handler, ok := p.handlers.Lookup(event.Type)
	if !ok {
		logger.Warn("no handler registered for event type, failing event")
		event.RecordError(domain.ErrUnknownEventType)
		event.MarkFailed()
		return metrics.OutcomeUnknownType, p.persist(ctx, event)
	}

	if err := p.invoke(ctx, handler, event); err != nil {
		event.RecordError(err)
		event.MarkPending(p.config.RetryLimit)

		outcome := metrics.OutcomeRetry
		if event.Status == domain.StatusFailed {
			outcome = metrics.OutcomeFailed
		}
		logger.Error("event handler failed",
			slog.String("status", string(event.Status)),
			slog.Any("error", err),
		)
		return outcome, p.persist(ctx, event)
	}

	event.MarkProcessed(p.now())
	logger.Info("event processed")
	return metrics.OutcomeProcessed, p.persist(ctx, event)
}

// invoke runs the handler inside the failure boundary. A panic becomes
// ErrHandlerPanic; handlers observe the timeout through ctx.
func (p *Poller) invoke(ctx context.Context, handler domain.Handler, event *domain.Event) (err error) {
	if p.config.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.HandlerTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrHandlerPanic, r)
		}
	}()

	return handler.Handle(ctx, event)
}

// persist records the outcome even when ctx was cancelled while the handler ran,
// so shutdown does not strand a claimed event in processing.
func (p *Poller) persist(ctx context.Context, event *domain.Event) error {
	if err := p.eventRepo.Update(context.WithoutCancel(ctx), event); err != nil {
		return apperrors.Wrapf(err, "failed to persist event %s as %s", event.ID, event.Status)
	}
	return nil
}
