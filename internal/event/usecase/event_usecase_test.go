package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pubflow/internal/database"
	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/repository"
	"github.com/allisson/pubflow/internal/event/usecase"
	"github.com/allisson/pubflow/internal/event/usecase/mocks"
	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/testutil"
)

type validatorFunc func(eventType domain.Type, payload json.RawMessage) error

func (f validatorFunc) Validate(eventType domain.Type, payload json.RawMessage) error {
	return f(eventType, payload)
}

func newEventUseCase(validator usecase.PayloadValidator) (usecase.EventUseCase, *repository.MemoryEventRepository) {
	repo := repository.NewMemoryEventRepository()
	uc := usecase.NewEventUseCase(database.NewNoopTxManager(), repo, validator, testutil.DiscardLogger())
	return uc, repo
}

func TestEventUseCase_Enqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uc, repo := newEventUseCase(nil)

		event, err := uc.Enqueue(ctx, usecase.EnqueueInput{
			Type:    domain.TypeUserCreated,
			Payload: json.RawMessage(`{"user":"u-1"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, event.Status)
		assert.Equal(t, 0, event.RetryCount)
		assert.Equal(t, event.CreatedOn, event.ScheduledOn)

		stored, err := repo.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"user":"u-1"}`, string(stored.Payload))
	})

	t.Run("UnknownButWellFormedType", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		event, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: "Unrecognized", Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
		assert.Equal(t, domain.Type("Unrecognized"), event.Type)
	})

	t.Run("DeferredEvent", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)
		later := time.Now().UTC().Add(time.Hour)

		event, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: domain.TypeHarvesterRun, ScheduledOn: &later})
		require.NoError(t, err)
		assert.Equal(t, later, event.ScheduledOn)
		assert.JSONEq(t, `{}`, string(event.Payload))
	})

	t.Run("InvalidType", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		for _, eventType := range []domain.Type{"", "user.created", "User Created"} {
			_, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: eventType})
			assert.ErrorIs(t, err, domain.ErrInvalidEventType, string(eventType))
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		}
	})

	t.Run("PayloadMustBeObject", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		for _, payload := range []string{`[1]`, `"x"`, `{"a":`} {
			_, err := uc.Enqueue(ctx, usecase.EnqueueInput{
				Type:    domain.TypeUserCreated,
				Payload: json.RawMessage(payload),
			})
			assert.ErrorIs(t, err, domain.ErrInvalidPayload, payload)
		}
	})

	t.Run("SchemaRejection", func(t *testing.T) {
		rejected := apperrors.Wrap(domain.ErrInvalidPayload, "user is required")
		uc, repo := newEventUseCase(validatorFunc(func(eventType domain.Type, payload json.RawMessage) error {
			return rejected
		}))

		_, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: domain.TypeUserCreated})
		assert.ErrorIs(t, err, rejected)

		count, err := repo.Count(ctx, domain.EventFilter{})
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestEventUseCase_EnqueueUnique(t *testing.T) {
	ctx := context.Background()
	input := usecase.EnqueueInput{
		Type:    domain.TypeDepositDraftReminder,
		Payload: json.RawMessage(`{"deposit":{"id":"d-1","creator":"u-1"}}`),
	}

	t.Run("CreatesOnce", func(t *testing.T) {
		uc, repo := newEventUseCase(nil)

		first, created, err := uc.EnqueueUnique(ctx, input, "deposit.id")
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := uc.EnqueueUnique(ctx, input, "deposit.id")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		count, err := repo.Count(ctx, domain.EventFilter{Types: []domain.Type{domain.TypeDepositDraftReminder}})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("DifferentReference", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		_, created, err := uc.EnqueueUnique(ctx, input, "deposit.id")
		require.NoError(t, err)
		assert.True(t, created)

		other := input
		other.Payload = json.RawMessage(`{"deposit":{"id":"d-2","creator":"u-1"}}`)
		_, created, err = uc.EnqueueUnique(ctx, other, "deposit.id")
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("MissingReference", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		_, _, err := uc.EnqueueUnique(ctx, input, "review.id")
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("LosesInsertRace", func(t *testing.T) {
		repo := &mocks.MockEventRepository{}
		uc := usecase.NewEventUseCase(database.NewNoopTxManager(), repo, nil, testutil.DiscardLogger())
		winner := domain.NewEvent(input.Type, input.Payload, nil, time.Now().UTC())

		repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrEventNotFound).Once()
		repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEvent).Once()
		repo.On("FindOne", mock.Anything, mock.Anything).Return(winner, nil).Once()

		stored, created, err := uc.EnqueueUnique(ctx, input, "deposit.id")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.ID, stored.ID)
		repo.AssertExpectations(t)
	})

	t.Run("ConcurrentCallers", func(t *testing.T) {
		uc, repo := newEventUseCase(nil)

		const callers = 8
		var wg sync.WaitGroup
		createdCount := make(chan bool, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := uc.EnqueueUnique(ctx, input, "deposit.id")
				assert.NoError(t, err)
				createdCount <- created
			}()
		}
		wg.Wait()
		close(createdCount)

		total := 0
		for created := range createdCount {
			if created {
				total++
			}
		}
		assert.Equal(t, 1, total)

		count, err := repo.Count(ctx, domain.EventFilter{Types: []domain.Type{domain.TypeDepositDraftReminder}})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestEventUseCase_GetAndList(t *testing.T) {
	ctx := context.Background()
	uc, _ := newEventUseCase(nil)

	created, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: domain.TypeUserCreated})
	require.NoError(t, err)
	_, err = uc.Enqueue(ctx, usecase.EnqueueInput{Type: domain.TypeHarvesterRun})
	require.NoError(t, err)

	got, err := uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = uc.Get(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	events, err := uc.List(ctx, domain.EventFilter{Types: []domain.Type{domain.TypeHarvesterRun}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.TypeHarvesterRun, events[0].Type)
}

func TestEventUseCase_Requeue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uc, repo := newEventUseCase(nil)
		failed, err := uc.Enqueue(ctx, usecase.EnqueueInput{
			Type:    domain.TypeDepositAccepted,
			Payload: json.RawMessage(`{"deposit":{"id":"d-1"}}`),
		})
		require.NoError(t, err)
		failed.MarkProcessing()
		failed.RecordError(errors.New("smtp down"))
		failed.MarkFailed()
		require.NoError(t, repo.Update(ctx, failed))

		requeued, err := uc.Requeue(ctx, failed.ID)
		require.NoError(t, err)
		assert.NotEqual(t, failed.ID, requeued.ID)
		assert.Equal(t, domain.StatusPending, requeued.Status)
		assert.Equal(t, 0, requeued.RetryCount)
		assert.JSONEq(t, `{"deposit":{"id":"d-1"}}`, string(requeued.Payload))

		original, err := repo.Get(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, original.Status)
		assert.Equal(t, 1, original.RetryCount)
	})

	t.Run("NotFailed", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)
		pending, err := uc.Enqueue(ctx, usecase.EnqueueInput{Type: domain.TypeUserCreated})
		require.NoError(t, err)

		_, err = uc.Requeue(ctx, pending.ID)
		assert.ErrorIs(t, err, domain.ErrEventNotFailed)
	})

	t.Run("NotFound", func(t *testing.T) {
		uc, _ := newEventUseCase(nil)

		_, err := uc.Requeue(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})
}
