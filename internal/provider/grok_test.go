package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelaxSchema(t *testing.T) {
	t.Run("drops additionalProperties and required", func(t *testing.T) {
		schema := map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"predictedOutput"},
			"properties": map[string]any{
				"predictedOutput": map[string]any{"type": "array"},
			},
		}
		relaxed := relaxSchema(schema)
		assert.NotContains(t, relaxed, "additionalProperties")
		assert.NotContains(t, relaxed, "required")
		assert.Contains(t, relaxed, "properties")
	})

	t.Run("nil schema stays nil", func(t *testing.T) {
		assert.Nil(t, relaxSchema(nil))
	})
}
