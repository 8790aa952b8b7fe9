// Package handler holds the dispatch registry that maps event types to their
// handlers, the payload schemas checked on enqueue, and the handlers themselves.
package handler

import (
	"slices"
	"sync"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

// Registry maps event types to handlers. It is populated at startup and read
// by the poller; a lookup miss is reported, not treated as an error.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.Type]domain.Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.Type]domain.Handler)}
}

// Register binds a handler to an event type. A type can only be bound once.
func (r *Registry) Register(eventType domain.Type, handler domain.Handler) error {
	if !eventType.Valid() {
		return apperrors.Wrapf(domain.ErrInvalidEventType, "cannot register %q", eventType)
	}
	if handler == nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "nil handler for %s", eventType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[eventType]; exists {
		return apperrors.Wrapf(apperrors.ErrConflict, "handler already registered for %s", eventType)
	}
	r.handlers[eventType] = handler
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(eventType domain.Type, handler domain.Handler) {
	if err := r.Register(eventType, handler); err != nil {
		panic(err)
	}
}

// Lookup returns the handler bound to eventType.
func (r *Registry) Lookup(eventType domain.Type) (domain.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[eventType]
	return handler, ok
}

// Types returns the registered types in lexical order.
func (r *Registry) Types() []domain.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
