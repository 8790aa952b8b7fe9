package handler

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

// SchemaSet holds optional JSON schemas for event payloads. Types without a
// schema accept any JSON object.
type SchemaSet struct {
	schemas map[domain.Type]*gojsonschema.Schema
}

// NewSchemaSet creates an empty SchemaSet.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{schemas: make(map[domain.Type]*gojsonschema.Schema)}
}

// Add compiles and stores the schema of eventType.
func (s *SchemaSet) Add(eventType domain.Type, schema string) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return apperrors.Wrapf(err, "invalid schema for %s", eventType)
	}
	s.schemas[eventType] = compiled
	return nil
}

// Validate checks payload against the schema of eventType.
func (s *SchemaSet) Validate(eventType domain.Type, payload json.RawMessage) error {
	schema, ok := s.schemas[eventType]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return apperrors.Wrap(domain.ErrInvalidPayload, err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return apperrors.Wrap(domain.ErrInvalidPayload, strings.Join(details, "; "))
	}
	return nil
}

// Has reports whether eventType has a schema.
func (s *SchemaSet) Has(eventType domain.Type) bool {
	_, ok := s.schemas[eventType]
	return ok
}

const refSchema = `{"type": ["string", "integer"], "minLength": 1}`

var defaultSchemas = map[domain.Type]string{
	domain.TypeUserCreated: `{
		"type": "object",
		"required": ["user"],
		"properties": {
			"user": ` + refSchema + `,
			"name": {"type": "string"},
			"email": {"type": "string"}
		}
	}`,
	domain.TypeDepositDraftReminder: `{
		"type": "object",
		"required": ["deposit"],
		"properties": {
			"deposit": {
				"type": "object",
				"required": ["id", "creator"],
				"properties": {
					"id": ` + refSchema + `,
					"creator": ` + refSchema + `,
					"title": {"type": "string"}
				}
			}
		}
	}`,
	domain.TypeDepositHarvested: `{
		"type": "object",
		"required": ["deposit", "openaire_id"],
		"properties": {
			"deposit": ` + refSchema + `,
			"openaire_id": {"type": "string", "minLength": 1}
		}
	}`,
	domain.TypePasswordResetRequested: `{
		"type": "object",
		"required": ["user", "code"],
		"properties": {
			"user": ` + refSchema + `,
			"code": {"type": "string", "minLength": 1}
		}
	}`,
}

// DefaultSchemas returns the schemas of the built-in event types.
func DefaultSchemas() (*SchemaSet, error) {
	set := NewSchemaSet()
	for eventType, schema := range defaultSchemas {
		if err := set.Add(eventType, schema); err != nil {
			return nil, err
		}
	}
	return set, nil
}
