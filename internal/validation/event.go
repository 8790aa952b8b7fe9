package validation

import (
	"bytes"
	"encoding/json"
	"regexp"

	validation "github.com/jellydator/validation"
)

var eventTypeRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// EventType validates the syntax of an event type tag. Whether a handler is
// registered for the tag is decided later by the poller.
var EventType = validation.NewStringRuleWithError(
	func(s string) bool {
		return eventTypeRegex.MatchString(s)
	},
	validation.NewError("validation_event_type", "must contain only letters and digits"),
)

// JSONObject validates that a json.RawMessage, []byte or string holds a JSON object.
// Empty values pass so Required can report them.
var JSONObject = validation.By(func(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return validation.NewError("validation_json_object_type", "must be JSON data")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '{' || !json.Valid(raw) {
		return validation.NewError("validation_json_object", "must be a JSON object")
	}
	return nil
})
