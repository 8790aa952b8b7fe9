package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

func TestDefaultSchemas(t *testing.T) {
	schemas, err := DefaultSchemas()
	require.NoError(t, err)

	tests := []struct {
		name      string
		eventType domain.Type
		payload   string
		wantErr   bool
	}{
		{"user created", domain.TypeUserCreated, `{"user":"u-1","name":"Ada"}`, false},
		{"user created with numeric id", domain.TypeUserCreated, `{"user":42}`, false},
		{"user created without user", domain.TypeUserCreated, `{"name":"Ada"}`, true},
		{"user created with empty user", domain.TypeUserCreated, `{"user":""}`, true},
		{"reminder", domain.TypeDepositDraftReminder, `{"deposit":{"id":"d-1","creator":"u-1","title":"T"}}`, false},
		{"reminder without creator", domain.TypeDepositDraftReminder, `{"deposit":{"id":"d-1"}}`, true},
		{"harvested", domain.TypeDepositHarvested, `{"deposit":"d-1","openaire_id":"oai:1"}`, false},
		{"harvested without identifier", domain.TypeDepositHarvested, `{"deposit":"d-1"}`, true},
		{"type without schema", domain.TypeCommentCreated, `{"anything":true}`, false},
		{"unknown type", "Unrecognized", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.Validate(tt.eventType, json.RawMessage(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPayload)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSchemaSet_Add(t *testing.T) {
	set := NewSchemaSet()

	err := set.Add(domain.TypeCommentCreated, `{"type": "not-a-type"}`)
	assert.Error(t, err)
	assert.False(t, set.Has(domain.TypeCommentCreated))

	require.NoError(t, set.Add(domain.TypeCommentCreated, `{"type":"object","required":["comment"]}`))
	assert.True(t, set.Has(domain.TypeCommentCreated))
	assert.Error(t, set.Validate(domain.TypeCommentCreated, json.RawMessage(`{}`)))
}
