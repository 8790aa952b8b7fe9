package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/usecase"
	eventMocks "github.com/allisson/pubflow/internal/event/usecase/mocks"
)

func newTestEvent(eventType domain.Type) *domain.Event {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.NewEvent(eventType, json.RawMessage(`{"deposit":"42"}`), nil, now)
}

func TestRunCreateEvent(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		event := newTestEvent(domain.TypeHarvesterRun)
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("Enqueue", ctx, usecase.EnqueueInput{
			Type:    domain.TypeHarvesterRun,
			Payload: json.RawMessage(`{}`),
		}).Return(event, nil)

		var out bytes.Buffer
		err := RunCreateEvent(ctx, mockUseCase, logger, &out, "HarvesterRun", `{}`, "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), event.ID.String())
		require.Contains(t, out.String(), "HarvesterRun")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output-with-schedule", func(t *testing.T) {
		event := newTestEvent(domain.TypeDepositHarvested)
		scheduledOn := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("Enqueue", ctx, mock.MatchedBy(func(input usecase.EnqueueInput) bool {
			return input.ScheduledOn != nil && input.ScheduledOn.Equal(scheduledOn)
		})).Return(event, nil)

		var out bytes.Buffer
		err := RunCreateEvent(
			ctx, mockUseCase, logger, &out,
			"DepositHarvested", `{"deposit":"42"}`, "2026-03-02T08:00:00Z", "json",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), `"status": "pending"`)
		require.Contains(t, out.String(), `"type": "DepositHarvested"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-scheduled-on", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		err := RunCreateEvent(ctx, mockUseCase, logger, &bytes.Buffer{}, "HarvesterRun", "", "tomorrow", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid scheduled-on")
		mockUseCase.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("invalid-format", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		err := RunCreateEvent(ctx, mockUseCase, logger, &bytes.Buffer{}, "HarvesterRun", "", "", "yaml")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("Enqueue", ctx, mock.Anything).Return(nil, domain.ErrInvalidEventType)

		err := RunCreateEvent(ctx, mockUseCase, logger, &bytes.Buffer{}, "bad type", "", "", "text")

		require.ErrorIs(t, err, domain.ErrInvalidEventType)
	})
}

func TestRunListEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("text-output", func(t *testing.T) {
		event := newTestEvent(domain.TypeHarvesterRun)
		lastError := "harvester unavailable"
		event.Status = domain.StatusFailed
		event.LastError = &lastError

		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("List", ctx, domain.EventFilter{
			Statuses: []domain.Status{domain.StatusFailed},
			Types:    []domain.Type{domain.TypeHarvesterRun},
			Offset:   0,
			Limit:    10,
		}).Return([]*domain.Event{event}, nil)

		var out bytes.Buffer
		err := RunListEvents(ctx, mockUseCase, &out, "failed", "HarvesterRun", 0, 10, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "STATUS")
		require.Contains(t, out.String(), event.ID.String())
		require.Contains(t, out.String(), "harvester unavailable")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("List", ctx, domain.EventFilter{Offset: 5, Limit: 5}).
			Return([]*domain.Event{}, nil)

		var out bytes.Buffer
		err := RunListEvents(ctx, mockUseCase, &out, "", "", 5, 5, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"offset": 5`)
		require.Contains(t, out.String(), `"data": []`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-status", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		err := RunListEvents(ctx, mockUseCase, &bytes.Buffer{}, "stuck", "", 0, 10, "text")

		require.Error(t, err)
		mockUseCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("invalid-limit", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		err := RunListEvents(ctx, mockUseCase, &bytes.Buffer{}, "", "", 0, 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "limit >= 1")
	})
}

func TestRunRequeueEvent(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	failedID := uuid.Must(uuid.NewV7())

	t.Run("text-output", func(t *testing.T) {
		event := newTestEvent(domain.TypeHarvesterRun)
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("Requeue", ctx, failedID).Return(event, nil)

		var out bytes.Buffer
		err := RunRequeueEvent(ctx, mockUseCase, logger, &out, failedID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "requeued as "+event.ID.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("not-failed", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		mockUseCase.On("Requeue", ctx, failedID).Return(nil, domain.ErrEventNotFailed)

		err := RunRequeueEvent(ctx, mockUseCase, logger, &bytes.Buffer{}, failedID.String(), "json")

		require.ErrorIs(t, err, domain.ErrEventNotFailed)
	})

	t.Run("invalid-id", func(t *testing.T) {
		mockUseCase := &eventMocks.MockEventUseCase{}
		err := RunRequeueEvent(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid event id")
	})
}

type fakeTicker struct {
	remaining int
	err       error
	calls     int
}

func (f *fakeTicker) Tick(ctx context.Context) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.remaining == 0 {
		return false, nil
	}
	f.remaining--
	return true, nil
}

func TestRunProcessEvents(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("drains-queue", func(t *testing.T) {
		ticker := &fakeTicker{remaining: 3}

		var out bytes.Buffer
		err := RunProcessEvents(ctx, ticker, logger, &out, 0)

		require.NoError(t, err)
		require.Equal(t, 4, ticker.calls)
		require.Contains(t, out.String(), "Processed 3 event(s)")
	})

	t.Run("stops-at-max-ticks", func(t *testing.T) {
		ticker := &fakeTicker{remaining: 10}

		var out bytes.Buffer
		err := RunProcessEvents(ctx, ticker, logger, &out, 2)

		require.NoError(t, err)
		require.Equal(t, 2, ticker.calls)
		require.Contains(t, out.String(), "Processed 2 event(s)")
	})

	t.Run("store-error", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		ticker := &fakeTicker{err: storeErr}

		err := RunProcessEvents(ctx, ticker, logger, &bytes.Buffer{}, 0)

		require.ErrorIs(t, err, storeErr)
	})

	t.Run("canceled-context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		ticker := &fakeTicker{remaining: 1}

		err := RunProcessEvents(canceled, ticker, logger, &bytes.Buffer{}, 0)

		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, ticker.calls)
	})
}

type fakeRunner struct {
	mock.Mock
}

func (f *fakeRunner) Run(ctx context.Context, name string) error {
	return f.Called(ctx, name).Error(0)
}

func TestRunProducer(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{}
		runner.On("Run", ctx, "weekly").Return(nil)

		var out bytes.Buffer
		err := RunProducer(ctx, runner, logger, &out, "weekly")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Producer weekly completed")
		runner.AssertExpectations(t)
	})

	t.Run("unknown-producer", func(t *testing.T) {
		runner := &fakeRunner{}
		runner.On("Run", ctx, "hourly").Return(errors.New("unknown producer"))

		err := RunProducer(ctx, runner, logger, &bytes.Buffer{}, "hourly")

		require.Error(t, err)
		require.Contains(t, err.Error(), "known producers")
	})
}
