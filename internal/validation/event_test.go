package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventType(t *testing.T) {
	for _, valid := range []string{"UserCreated", "Unrecognized", "DOIRegistered", "Type2"} {
		assert.NoError(t, EventType.Validate(valid), valid)
	}
	for _, invalid := range []string{"user-created", "User Created", "user.created", "ümlaut"} {
		assert.Error(t, EventType.Validate(invalid), invalid)
	}
}

func TestJSONObject(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		shouldErr bool
	}{
		{name: "raw object", value: json.RawMessage(`{"user":"u-1"}`)},
		{name: "empty object", value: json.RawMessage(`{}`)},
		{name: "bytes object", value: []byte(` {"a":1} `)},
		{name: "string object", value: `{"a":[1,2]}`},
		{name: "empty value", value: json.RawMessage(nil)},
		{name: "array", value: json.RawMessage(`[1,2]`), shouldErr: true},
		{name: "scalar", value: json.RawMessage(`"text"`), shouldErr: true},
		{name: "malformed", value: `{"a":`, shouldErr: true},
		{name: "unsupported type", value: 12, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := JSONObject.Validate(tt.value)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
