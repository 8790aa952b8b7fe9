package dto

import (
	"encoding/json"
	"time"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/httputil"
)

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	RetryCount  int             `json:"retry_count"`
	LastError   *string         `json:"last_error,omitempty"`
	CreatedOn   time.Time       `json:"created_on"`
	ScheduledOn time.Time       `json:"scheduled_on"`
	ProcessedOn *time.Time      `json:"processed_on,omitempty"`
	UpdatedOn   time.Time       `json:"updated_on"`
}

// MapEventToResponse converts a domain event to an API response.
func MapEventToResponse(event *domain.Event) EventResponse {
	return EventResponse{
		ID:          event.ID.String(),
		Type:        event.Type.String(),
		Payload:     event.Payload,
		Status:      string(event.Status),
		RetryCount:  event.RetryCount,
		LastError:   event.LastError,
		CreatedOn:   event.CreatedOn,
		ScheduledOn: event.ScheduledOn,
		ProcessedOn: event.ProcessedOn,
		UpdatedOn:   event.UpdatedOn,
	}
}

// MapEventsToListResponse converts a page of domain events to an API response.
func MapEventsToListResponse(events []*domain.Event, offset, limit int) httputil.ListResponse[EventResponse] {
	data := make([]EventResponse, 0, len(events))
	for _, event := range events {
		data = append(data, MapEventToResponse(event))
	}
	return httputil.ListResponse[EventResponse]{
		Data:   data,
		Offset: offset,
		Limit:  limit,
	}
}
