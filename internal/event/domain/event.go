// Package domain defines the event entity, its lifecycle and the query filter
// used by the event store.
package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Status is the lifecycle state of an event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can happen from s.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Event is a durable unit of deferred work dispatched to exactly one handler.
type Event struct {
	ID          uuid.UUID
	Type        Type
	Payload     json.RawMessage
	Status      Status
	RetryCount  int
	LastError   *string
	CreatedOn   time.Time
	ScheduledOn time.Time
	ProcessedOn *time.Time
	UpdatedOn   time.Time
}

// NewEvent builds a pending event. ScheduledOn defaults to now and an empty
// payload becomes an empty JSON object.
func NewEvent(eventType Type, payload json.RawMessage, scheduledOn *time.Time, now time.Time) *Event {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage(`{}`)
	}

	scheduled := now
	if scheduledOn != nil {
		scheduled = *scheduledOn
	}

	return &Event{
		ID:          uuid.Must(uuid.NewV7()),
		Type:        eventType,
		Payload:     payload,
		Status:      StatusPending,
		RetryCount:  0,
		CreatedOn:   now,
		ScheduledOn: scheduled,
		UpdatedOn:   now,
	}
}

// Eligible reports whether the event can be claimed at now under retryLimit.
func (e *Event) Eligible(now time.Time, retryLimit int) bool {
	return e.Status == StatusPending && !e.ScheduledOn.After(now) && e.RetryCount < retryLimit
}

// MarkProcessing claims the event: one more attempt is consumed.
// Callers must only claim eligible events.
func (e *Event) MarkProcessing() {
	e.RetryCount++
	e.Status = StatusProcessing
}

// MarkProcessed records a successful attempt.
func (e *Event) MarkProcessed(now time.Time) {
	e.ProcessedOn = &now
	e.Status = StatusProcessed
}

// MarkPending returns the event to the queue after a failed attempt, or fails
// it once the retry budget is exhausted.
func (e *Event) MarkPending(retryLimit int) {
	if e.RetryCount >= retryLimit {
		e.Status = StatusFailed
		return
	}
	e.Status = StatusPending
}

// MarkFailed fails the event unconditionally.
func (e *Event) MarkFailed() {
	e.Status = StatusFailed
}

// RecordError keeps the message of the last failed attempt.
func (e *Event) RecordError(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	e.LastError = &msg
}

// Clone returns a fresh pending copy of the event with a new id and no
// processing history. It backs operator requeues of failed events.
func (e *Event) Clone(now time.Time) *Event {
	payload := make(json.RawMessage, len(e.Payload))
	copy(payload, e.Payload)
	return NewEvent(e.Type, payload, nil, now)
}

// uniqueRefs maps the types whose active events are keyed by a payload
// reference to the path of that reference. The SQL stores enforce the same
// rule with a unique index.
var uniqueRefs = map[Type]string{
	TypeDepositDraftReminder: "deposit.id",
}

// UniqueKey returns the reference that no other pending or processing event of
// the same type may carry. ok is false when the event is not subject to the rule.
func (e *Event) UniqueKey() (key string, ok bool) {
	path, keyed := uniqueRefs[e.Type]
	if !keyed || e.Status.IsTerminal() {
		return "", false
	}
	ref := gjson.GetBytes(e.Payload, path)
	if !ref.Exists() {
		return "", false
	}
	return ref.String(), true
}
