package insight

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorPassesWithoutSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	ins := Insight{ID: "ins-1", ModelName: "churn", PredictionOutput: mustOutput(`{"forecast": 1}`)}
	require.NoError(t, v.Validate(ins))
}

func TestValidatorEnforcesRegisteredSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	schema := json.RawMessage(`{
		"type": "object",
		"required": ["forecast"],
		"properties": {"forecast": {"type": "number"}}
	}`)
	require.NoError(t, v.RegisterSchema("churn", schema))

	good := Insight{ID: "ins-1", ModelName: "churn", PredictionOutput: mustOutput(`{"forecast": 42}`)}
	assert.NoError(t, v.Validate(good))

	bad := Insight{ID: "ins-2", ModelName: "churn", PredictionOutput: mustOutput(`{"forecast": "high"}`)}
	err := v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ins-2")

	missing := Insight{ID: "ins-3", ModelName: "churn", PredictionOutput: mustOutput(`{"score": 1}`)}
	assert.Error(t, v.Validate(missing))
}

func TestValidatorRegisterSchemaValidation(t *testing.T) {
	v := NewJSONSchemaValidator()
	require.Error(t, v.RegisterSchema("", json.RawMessage(`{}`)))
	require.Error(t, v.RegisterSchema("churn", json.RawMessage(`{`)))
}

func TestValidatorReplacesSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	require.NoError(t, v.RegisterSchema("churn", json.RawMessage(`{"type":"object","required":["a"]}`)))
	ins := Insight{ID: "ins-1", ModelName: "churn", PredictionOutput: mustOutput(`{"b": 1}`)}
	require.Error(t, v.Validate(ins))

	require.NoError(t, v.RegisterSchema("churn", json.RawMessage(`{"type":"object"}`)))
	require.NoError(t, v.Validate(ins))
}
