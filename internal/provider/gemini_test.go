package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestToGenaiSchema(t *testing.T) {
	t.Run("nil schema yields nil", func(t *testing.T) {
		assert.Nil(t, toGenaiSchema(nil))
	})

	t.Run("converts nested object schema", func(t *testing.T) {
		schema := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"predictedOutput": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"predictedOutput"},
		}
		s := toGenaiSchema(schema)
		assert.Equal(t, genai.Type("object"), s.Type)
		assert.Contains(t, s.Properties, "predictedOutput")
		assert.Equal(t, []string{"predictedOutput"}, s.Required)
		assert.Equal(t, genai.Type("array"), s.Properties["predictedOutput"].Type)
	})
}
