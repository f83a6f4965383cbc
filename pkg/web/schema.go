package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema is the structural contract for workflow definition
// documents, checked before model-level validation so admins get positional
// errors for malformed documents.
const definitionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "entity_type", "steps", "sla_hours", "escalation_hours"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"entity_type": {"enum": ["offer", "interview", "role_transition"]},
		"department": {"type": "string"},
		"position_level": {"type": "string"},
		"salary_min": {"type": "number", "minimum": 0},
		"salary_max": {"type": "number", "minimum": 0},
		"sla_hours": {"type": "number", "exclusiveMinimum": 0},
		"escalation_hours": {"type": "number", "exclusiveMinimum": 0},
		"is_active": {"type": "boolean"},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["step_number", "name", "required_role"],
				"properties": {
					"step_number": {"type": "integer", "minimum": 1},
					"name": {"type": "string", "minLength": 1},
					"required_role": {"type": "string", "minLength": 1},
					"is_committee": {"type": "boolean"},
					"minimum_votes": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var compiledDefinitionSchema = gojsonschema.NewStringLoader(definitionSchema)

// validateDefinitionDocument checks a raw definition document against the
// JSON Schema and returns a single aggregated message on failure.
func validateDefinitionDocument(body []byte) error {
	result, err := gojsonschema.Validate(compiledDefinitionSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate definition document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		details = append(details, resultError.String())
	}

	return fmt.Errorf("invalid definition document: %s", strings.Join(details, "; "))
}
