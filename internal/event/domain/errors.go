package domain

import (
	"github.com/allisson/pubflow/internal/errors"
)

// Event-specific error definitions.
var (
	// ErrEventNotFound indicates no event exists with the given id.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "event not found")

	// ErrNoEligibleEvent indicates the store holds no event that can be claimed right now.
	ErrNoEligibleEvent = errors.Wrap(errors.ErrNotFound, "no eligible event")

	// ErrInvalidEventType indicates the type tag is empty or malformed.
	ErrInvalidEventType = errors.Wrap(errors.ErrInvalidInput, "invalid event type")

	// ErrInvalidPayload indicates the payload is not a JSON object or fails its schema.
	ErrInvalidPayload = errors.Wrap(errors.ErrInvalidInput, "invalid event payload")

	// ErrDuplicateEvent indicates an active event of the same type already carries the unique reference.
	ErrDuplicateEvent = errors.Wrap(errors.ErrConflict, "event already enqueued")

	// ErrEventNotFailed indicates a requeue was requested for an event that is not failed.
	ErrEventNotFailed = errors.Wrap(errors.ErrInvalidInput, "event is not failed")

	// ErrUnknownEventType indicates no handler is registered for the event type.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrHandlerPanic indicates a handler panicked while processing an event.
	ErrHandlerPanic = errors.New("event handler panicked")
)
