// Package usecase implements the event engine: enqueueing, querying and
// requeueing events, and the poller that claims and dispatches them.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/domain"
)

// EventRepository defines the durable event store.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	FindOne(ctx context.Context, filter domain.EventFilter) (*domain.Event, error)
	Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)
	Count(ctx context.Context, filter domain.EventFilter) (int, error)
	Update(ctx context.Context, event *domain.Event) error
	// ClaimNext atomically claims the oldest eligible event or returns
	// domain.ErrNoEligibleEvent.
	ClaimNext(ctx context.Context, now time.Time, retryLimit int) (*domain.Event, error)
}

// HandlerLookup resolves the handler registered for an event type.
type HandlerLookup interface {
	Lookup(eventType domain.Type) (domain.Handler, bool)
}

// PayloadValidator checks a payload against the schema registered for its type.
// Types without a schema are accepted.
type PayloadValidator interface {
	Validate(eventType domain.Type, payload json.RawMessage) error
}

// EnqueueInput describes a new event.
type EnqueueInput struct {
	Type        domain.Type
	Payload     json.RawMessage
	ScheduledOn *time.Time
}

// EventUseCase defines the enqueue and query surface of the engine.
type EventUseCase interface {
	// Enqueue validates and stores a new pending event.
	Enqueue(ctx context.Context, input EnqueueInput) (*domain.Event, error)
	// EnqueueUnique stores the event unless one of the same type already carries
	// the same value at refPath in its payload. It returns the stored or existing
	// event and whether it was created.
	EnqueueUnique(ctx context.Context, input EnqueueInput, refPath string) (*domain.Event, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)
	// Requeue stores a fresh pending copy of a failed event. The failed record is left untouched.
	Requeue(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}
