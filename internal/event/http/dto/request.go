// Package dto provides data transfer objects for the event API.
package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/usecase"
	customValidation "github.com/allisson/pubflow/internal/validation"
)

// EnqueueEventRequest contains the parameters for enqueueing an event.
type EnqueueEventRequest struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	ScheduledOn *time.Time      `json:"scheduled_on,omitempty"`
}

// Validate checks if the enqueue request is valid.
func (r *EnqueueEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type,
			validation.Required,
			validation.Length(1, 100),
			customValidation.EventType,
		),
		validation.Field(&r.Payload, customValidation.JSONObject),
	)
}

// ToInput converts the request to a use case input.
func (r *EnqueueEventRequest) ToInput() usecase.EnqueueInput {
	return usecase.EnqueueInput{
		Type:        domain.Type(r.Type),
		Payload:     r.Payload,
		ScheduledOn: r.ScheduledOn,
	}
}

// ParseStatuses parses a comma separated status list. An empty string means
// every status.
func ParseStatuses(raw string) ([]domain.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var statuses []domain.Status
	for _, part := range strings.Split(raw, ",") {
		status := domain.Status(strings.TrimSpace(part))
		if !status.Valid() {
			return nil, fmt.Errorf("invalid status parameter: %q", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ParseTypes parses a comma separated event type list. An empty string means
// every type.
func ParseTypes(raw string) ([]domain.Type, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var types []domain.Type
	for _, part := range strings.Split(raw, ",") {
		eventType := domain.Type(strings.TrimSpace(part))
		if !eventType.Valid() {
			return nil, fmt.Errorf("invalid type parameter: %q", part)
		}
		types = append(types, eventType)
	}
	return types, nil
}
