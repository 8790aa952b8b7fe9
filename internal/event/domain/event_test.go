package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

func TestNewEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)

		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, uuid.Version(7), e.ID.Version())
		assert.Equal(t, TypeUserCreated, e.Type)
		assert.JSONEq(t, `{}`, string(e.Payload))
		assert.Equal(t, StatusPending, e.Status)
		assert.Equal(t, 0, e.RetryCount)
		assert.Equal(t, now, e.CreatedOn)
		assert.Equal(t, now, e.ScheduledOn)
		assert.Nil(t, e.ProcessedOn)
		assert.Nil(t, e.LastError)
	})

	t.Run("explicit schedule", func(t *testing.T) {
		later := now.Add(time.Hour)
		e := NewEvent(TypeUserCreated, json.RawMessage(`{"user":"u-1"}`), &later, now)

		assert.Equal(t, later, e.ScheduledOn)
		assert.Equal(t, now, e.CreatedOn)
		assert.JSONEq(t, `{"user":"u-1"}`, string(e.Payload))
	})

	t.Run("ids are time ordered", func(t *testing.T) {
		first := NewEvent(TypeUserCreated, nil, nil, now)
		second := NewEvent(TypeUserCreated, nil, nil, now)
		assert.Less(t, first.ID.String(), second.ID.String())
	})
}

func TestEventStateMachine(t *testing.T) {
	now := time.Now().UTC()

	t.Run("claim increments retry count", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)
		e.MarkProcessing()
		assert.Equal(t, StatusProcessing, e.Status)
		assert.Equal(t, 1, e.RetryCount)
	})

	t.Run("processed sets timestamp", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)
		e.MarkProcessing()
		e.MarkProcessed(now)
		assert.Equal(t, StatusProcessed, e.Status)
		require.NotNil(t, e.ProcessedOn)
		assert.Equal(t, now, *e.ProcessedOn)
		assert.True(t, e.Status.IsTerminal())
	})

	t.Run("pending while budget remains", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)
		e.MarkProcessing()
		e.MarkPending(2)
		assert.Equal(t, StatusPending, e.Status)
		assert.Equal(t, 1, e.RetryCount)
	})

	t.Run("failed when budget is exhausted", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)
		e.MarkProcessing()
		e.MarkPending(2)
		e.MarkProcessing()
		e.MarkPending(2)
		assert.Equal(t, StatusFailed, e.Status)
		assert.Equal(t, 2, e.RetryCount)
	})

	t.Run("failed unconditionally", func(t *testing.T) {
		e := NewEvent("Unrecognized", nil, nil, now)
		e.MarkProcessing()
		e.MarkFailed()
		assert.Equal(t, StatusFailed, e.Status)
		assert.Equal(t, 1, e.RetryCount)
	})

	t.Run("record error", func(t *testing.T) {
		e := NewEvent(TypeUserCreated, nil, nil, now)
		e.RecordError(nil)
		assert.Nil(t, e.LastError)
		e.RecordError(errors.New("smtp: connection refused"))
		require.NotNil(t, e.LastError)
		assert.Equal(t, "smtp: connection refused", *e.LastError)
	})
}

func TestEventEligible(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		mutate   func(e *Event)
		expected bool
	}{
		{name: "pending and due", mutate: func(e *Event) {}, expected: true},
		{name: "scheduled exactly now", mutate: func(e *Event) { e.ScheduledOn = now }, expected: true},
		{name: "scheduled in the future", mutate: func(e *Event) { e.ScheduledOn = now.Add(time.Second) }},
		{name: "processing", mutate: func(e *Event) { e.Status = StatusProcessing }},
		{name: "processed", mutate: func(e *Event) { e.Status = StatusProcessed }},
		{name: "failed", mutate: func(e *Event) { e.Status = StatusFailed }},
		{name: "budget exhausted", mutate: func(e *Event) { e.RetryCount = 2 }},
		{name: "one attempt left", mutate: func(e *Event) { e.RetryCount = 1 }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvent(TypeUserCreated, nil, nil, now.Add(-time.Minute))
			tt.mutate(e)
			assert.Equal(t, tt.expected, e.Eligible(now, 2))
			assert.Equal(t, tt.expected, Eligibility(now, 2).Matches(e))
		})
	}
}

func TestEventClone(t *testing.T) {
	now := time.Now().UTC()
	failed := NewEvent(TypeDepositAccepted, json.RawMessage(`{"deposit":{"id":"d-1"}}`), nil, now)
	failed.MarkProcessing()
	failed.RecordError(errors.New("boom"))
	failed.MarkFailed()

	later := now.Add(time.Minute)
	clone := failed.Clone(later)

	assert.NotEqual(t, failed.ID, clone.ID)
	assert.Equal(t, failed.Type, clone.Type)
	assert.JSONEq(t, string(failed.Payload), string(clone.Payload))
	assert.Equal(t, StatusPending, clone.Status)
	assert.Equal(t, 0, clone.RetryCount)
	assert.Nil(t, clone.LastError)
	assert.Equal(t, later, clone.ScheduledOn)

	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, 1, failed.RetryCount)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("done").Valid())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusProcessed.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestType(t *testing.T) {
	assert.True(t, TypeUserCreated.Valid())
	assert.True(t, Type("Unrecognized").Valid())
	assert.False(t, Type("").Valid())
	assert.False(t, Type("user.created").Valid())
	assert.Equal(t, "DOIRegistered", TypeDOIRegistered.String())
}

func TestErrors(t *testing.T) {
	assert.True(t, apperrors.Is(ErrEventNotFound, apperrors.ErrNotFound))
	assert.True(t, apperrors.Is(ErrNoEligibleEvent, apperrors.ErrNotFound))
	assert.True(t, apperrors.Is(ErrInvalidEventType, apperrors.ErrInvalidInput))
	assert.True(t, apperrors.Is(ErrInvalidPayload, apperrors.ErrInvalidInput))
	assert.True(t, apperrors.Is(ErrEventNotFailed, apperrors.ErrInvalidInput))
}

func TestEventUniqueKey(t *testing.T) {
	now := time.Now().UTC()
	reminder := NewEvent(TypeDepositDraftReminder, json.RawMessage(`{"deposit":{"id":"d-1"}}`), nil, now)

	key, ok := reminder.UniqueKey()
	assert.True(t, ok)
	assert.Equal(t, "d-1", key)

	reminder.MarkProcessing()
	_, ok = reminder.UniqueKey()
	assert.True(t, ok, "a processing event still holds its key")

	reminder.MarkProcessed(now)
	_, ok = reminder.UniqueKey()
	assert.False(t, ok, "terminal events release their key")

	_, ok = NewEvent(TypeDepositDraftReminder, json.RawMessage(`{}`), nil, now).UniqueKey()
	assert.False(t, ok)

	_, ok = NewEvent(TypeDepositAccepted, json.RawMessage(`{"deposit":{"id":"d-1"}}`), nil, now).UniqueKey()
	assert.False(t, ok)
}
