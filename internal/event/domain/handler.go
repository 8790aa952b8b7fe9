package domain

import "context"

// Handler performs the side effects of one event type. Any returned error
// counts as a failed attempt.
type Handler interface {
	Handle(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// Handle calls f(ctx, event).
func (f HandlerFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
