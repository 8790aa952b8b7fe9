package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/metrics"
)

// eventUseCaseWithMetrics decorates EventUseCase with metrics instrumentation.
type eventUseCaseWithMetrics struct {
	next    EventUseCase
	metrics metrics.BusinessMetrics
}

// NewEventUseCaseWithMetrics wraps an EventUseCase with metrics recording.
func NewEventUseCaseWithMetrics(useCase EventUseCase, m metrics.BusinessMetrics) EventUseCase {
	return &eventUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *eventUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordOperation(ctx, "events", operation, status)
	e.metrics.RecordDuration(ctx, "events", operation, time.Since(start), status)
}

func (e *eventUseCaseWithMetrics) Enqueue(ctx context.Context, input EnqueueInput) (*domain.Event, error) {
	start := time.Now()
	event, err := e.next.Enqueue(ctx, input)
	e.record(ctx, "event_enqueue", start, err)
	return event, err
}

func (e *eventUseCaseWithMetrics) EnqueueUnique(
	ctx context.Context,
	input EnqueueInput,
	refPath string,
) (*domain.Event, bool, error) {
	start := time.Now()
	event, created, err := e.next.EnqueueUnique(ctx, input, refPath)
	e.record(ctx, "event_enqueue_unique", start, err)
	return event, created, err
}

func (e *eventUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	start := time.Now()
	event, err := e.next.Get(ctx, id)
	e.record(ctx, "event_get", start, err)
	return event, err
}

func (e *eventUseCaseWithMetrics) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	start := time.Now()
	events, err := e.next.List(ctx, filter)
	e.record(ctx, "event_list", start, err)
	return events, err
}

func (e *eventUseCaseWithMetrics) Requeue(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	start := time.Now()
	event, err := e.next.Requeue(ctx, id)
	e.record(ctx, "event_requeue", start, err)
	return event, err
}
