package domain

import (
	"slices"
	"time"

	"github.com/tidwall/gjson"
)

// PayloadCondition matches events whose payload value at Path equals Value.
// Path uses dot notation ("deposit.id"); the value is compared as text.
type PayloadCondition struct {
	Path  string
	Value string
}

// EventFilter selects events. Empty fields do not constrain the result; all
// set fields must hold.
type EventFilter struct {
	Statuses            []Status
	Types               []Type
	RetryCountLessThan  *int
	ScheduledOnOrBefore *time.Time
	ScheduledAfter      *time.Time
	Payload             []PayloadCondition
	Offset              int
	Limit               int
}

// Eligibility returns the claim predicate: pending, due at now and with retry
// budget left under retryLimit.
func Eligibility(now time.Time, retryLimit int) EventFilter {
	return EventFilter{
		Statuses:            []Status{StatusPending},
		RetryCountLessThan:  &retryLimit,
		ScheduledOnOrBefore: &now,
	}
}

// Matches evaluates the filter against a single event. Offset and Limit are ignored.
func (f EventFilter) Matches(e *Event) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.RetryCountLessThan != nil && e.RetryCount >= *f.RetryCountLessThan {
		return false
	}
	if f.ScheduledOnOrBefore != nil && e.ScheduledOn.After(*f.ScheduledOnOrBefore) {
		return false
	}
	if f.ScheduledAfter != nil && !e.ScheduledOn.After(*f.ScheduledAfter) {
		return false
	}
	for _, cond := range f.Payload {
		result := gjson.GetBytes(e.Payload, cond.Path)
		if !result.Exists() || result.String() != cond.Value {
			return false
		}
	}
	return true
}
