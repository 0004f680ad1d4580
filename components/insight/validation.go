package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OutputValidator checks prediction outputs against a per-model schema.
// The widget renders unvalidated payloads fine; validation exists for
// ingestion tooling that wants to reject malformed model output early.
type OutputValidator interface {
	Validate(ins Insight) error
}

// JSONSchemaValidator compiles per-model schemas and validates insights.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	schemas  map[string]json.RawMessage
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		schemas:  make(map[string]json.RawMessage),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// RegisterSchema associates a JSON schema with a model name. Registering a
// new schema for the same model replaces the old one.
func (v *JSONSchemaValidator) RegisterSchema(modelName string, schema json.RawMessage) error {
	if modelName == "" {
		return fmt.Errorf("insight: schema model name is required")
	}
	if !json.Valid(schema) {
		return fmt.Errorf("insight: schema for %s is not valid JSON", modelName)
	}
	v.mu.Lock()
	v.schemas[modelName] = schema
	delete(v.compiled, modelName)
	v.mu.Unlock()
	return nil
}

// Validate ensures the insight's prediction output satisfies the schema
// registered for its model. Models without a schema always pass.
func (v *JSONSchemaValidator) Validate(ins Insight) error {
	schema, err := v.schemaFor(ins.ModelName)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	var payload any
	if err := json.Unmarshal([]byte(ins.PredictionOutput.JSON()), &payload); err != nil {
		return fmt.Errorf("insight: normalize output for %s: %w", ins.ID, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("insight: output for %s failed validation: %w", ins.ID, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(modelName string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[modelName]
	raw, registered := v.schemas[modelName]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	if !registered {
		return nil, nil
	}
	compiler := jsonschema.NewCompiler()
	name := modelName + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("insight: load schema %s: %w", modelName, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("insight: compile schema %s: %w", modelName, err)
	}
	v.mu.Lock()
	v.compiled[modelName] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopOutputValidator struct{}

func (noopOutputValidator) Validate(Insight) error { return nil }
