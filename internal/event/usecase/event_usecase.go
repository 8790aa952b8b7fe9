package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/allisson/pubflow/internal/database"
	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

type eventUseCase struct {
	txManager database.TxManager
	eventRepo EventRepository
	validator PayloadValidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventUseCase creates an EventUseCase. validator may be nil.
func NewEventUseCase(
	txManager database.TxManager,
	eventRepo EventRepository,
	validator PayloadValidator,
	logger *slog.Logger,
) EventUseCase {
	return &eventUseCase{
		txManager: txManager,
		eventRepo: eventRepo,
		validator: validator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *eventUseCase) Enqueue(ctx context.Context, input EnqueueInput) (*domain.Event, error) {
	event, err := uc.build(input)
	if err != nil {
		return nil, err
	}

	if err := uc.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	uc.logger.Debug("event enqueued",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type.String()),
		slog.Time("scheduled_on", event.ScheduledOn),
	)
	return event, nil
}

func (uc *eventUseCase) EnqueueUnique(
	ctx context.Context,
	input EnqueueInput,
	refPath string,
) (*domain.Event, bool, error) {
	event, err := uc.build(input)
	if err != nil {
		return nil, false, err
	}

	ref := gjson.GetBytes(event.Payload, refPath)
	if !ref.Exists() {
		return nil, false, apperrors.Wrapf(domain.ErrInvalidPayload, "missing reference %q", refPath)
	}

	filter := domain.EventFilter{
		Types:   []domain.Type{event.Type},
		Payload: []domain.PayloadCondition{{Path: refPath, Value: ref.String()}},
	}

	var stored *domain.Event
	created := false
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.eventRepo.FindOne(ctx, filter)
		if err == nil {
			stored = existing
			return nil
		}
		if !apperrors.Is(err, domain.ErrEventNotFound) {
			return err
		}

		if err := uc.eventRepo.Create(ctx, event); err != nil {
			return err
		}
		stored = event
		created = true
		return nil
	})
	if apperrors.Is(err, domain.ErrDuplicateEvent) {
		// A concurrent caller inserted the same reference after our lookup.
		created = false
		stored, err = uc.eventRepo.FindOne(ctx, filter)
	}
	if err != nil {
		return nil, false, err
	}

	if !created {
		uc.logger.Debug("event already enqueued",
			slog.String("event_id", stored.ID.String()),
			slog.String("event_type", stored.Type.String()),
			slog.String("reference", ref.String()),
		)
	}
	return stored, created, nil
}

func (uc *eventUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return uc.eventRepo.Get(ctx, id)
}

func (uc *eventUseCase) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	return uc.eventRepo.Find(ctx, filter)
}

func (uc *eventUseCase) Requeue(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var requeued *domain.Event

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		failed, err := uc.eventRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if failed.Status != domain.StatusFailed {
			return domain.ErrEventNotFailed
		}

		requeued = failed.Clone(uc.now())
		return uc.eventRepo.Create(ctx, requeued)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("event requeued",
		slog.String("event_id", requeued.ID.String()),
		slog.String("failed_event_id", id.String()),
		slog.String("event_type", requeued.Type.String()),
	)
	return requeued, nil
}

// build validates the input and creates the pending event. Well formed types
// without a registered handler are accepted; the poller fails them.
func (uc *eventUseCase) build(input EnqueueInput) (*domain.Event, error) {
	if !input.Type.Valid() {
		return nil, apperrors.Wrapf(domain.ErrInvalidEventType, "%q", string(input.Type))
	}

	payload := bytes.TrimSpace(input.Payload)
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	if payload[0] != '{' || !json.Valid(payload) {
		return nil, apperrors.Wrap(domain.ErrInvalidPayload, "payload must be a JSON object")
	}

	if uc.validator != nil {
		if err := uc.validator.Validate(input.Type, payload); err != nil {
			return nil, err
		}
	}

	return domain.NewEvent(input.Type, payload, input.ScheduledOn, uc.now()), nil
}
