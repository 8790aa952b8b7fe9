package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/domain"
)

// MemoryEventRepository keeps events in process memory. It backs the memory
// database driver and the engine's property tests. All operations, including
// the claim, run under one mutex.
type MemoryEventRepository struct {
	mu     sync.Mutex
	seq    int64
	events map[uuid.UUID]*memoryEntry
}

type memoryEntry struct {
	seq   int64
	event domain.Event
}

// NewMemoryEventRepository creates an empty MemoryEventRepository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[uuid.UUID]*memoryEntry)}
}

// Create stores a copy of the event. It rejects an event whose unique key is
// already held by another active event of the same type.
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := event.UniqueKey(); ok {
		for _, entry := range r.events {
			if entry.event.Type != event.Type {
				continue
			}
			if other, held := entry.event.UniqueKey(); held && other == key {
				return domain.ErrDuplicateEvent
			}
		}
	}

	r.seq++
	r.events[event.ID] = &memoryEntry{seq: r.seq, event: copyEvent(event)}
	return nil
}

// Get retrieves a copy of an event by id.
func (r *MemoryEventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	event := copyEvent(&entry.event)
	return &event, nil
}

// FindOne returns the first event matching the filter in claim order.
func (r *MemoryEventRepository) FindOne(ctx context.Context, filter domain.EventFilter) (*domain.Event, error) {
	filter.Limit = 1
	events, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrEventNotFound
	}
	return events[0], nil
}

// Find returns copies of the matching events ordered by scheduled time, then insertion order.
func (r *MemoryEventRepository) Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	if filter.Limit > 0 {
		start := min(filter.Offset, len(matched))
		end := min(start+filter.Limit, len(matched))
		matched = matched[start:end]
	}

	events := make([]*domain.Event, 0, len(matched))
	for _, entry := range matched {
		event := copyEvent(&entry.event)
		events = append(events, &event)
	}
	return events, nil
}

// Count returns how many events match the filter.
func (r *MemoryEventRepository) Count(ctx context.Context, filter domain.EventFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.match(filter)), nil
}

// Update replaces the stored event, keeping its insertion order.
func (r *MemoryEventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	event.UpdatedOn = time.Now().UTC()
	entry.event = copyEvent(event)
	return nil
}

// ClaimNext moves the oldest eligible event to processing under the lock.
func (r *MemoryEventRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	retryLimit int,
) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(domain.Eligibility(now, retryLimit))
	if len(matched) == 0 {
		return nil, domain.ErrNoEligibleEvent
	}

	entry := matched[0]
	entry.event.MarkProcessing()
	entry.event.UpdatedOn = now
	event := copyEvent(&entry.event)
	return &event, nil
}

// match must be called with the lock held.
func (r *MemoryEventRepository) match(filter domain.EventFilter) []*memoryEntry {
	matched := make([]*memoryEntry, 0)
	for _, entry := range r.events {
		if filter.Matches(&entry.event) {
			matched = append(matched, entry)
		}
	}
	slices.SortFunc(matched, func(a, b *memoryEntry) int {
		if c := a.event.ScheduledOn.Compare(b.event.ScheduledOn); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return matched
}

func copyEvent(event *domain.Event) domain.Event {
	c := *event
	c.Payload = append(json.RawMessage(nil), event.Payload...)
	if event.LastError != nil {
		lastError := *event.LastError
		c.LastError = &lastError
	}
	if event.ProcessedOn != nil {
		processedOn := *event.ProcessedOn
		c.ProcessedOn = &processedOn
	}
	return c
}
