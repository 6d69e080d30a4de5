// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provider

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// analysisSchemaBase is the fixed portion of an analysis response, shared by
// every puzzle shape. The predictedOutput field(s) are appended on top of
// this, since their names depend on how many test pairs the puzzle has.
type analysisSchemaBase struct {
	PatternDescription string   `json:"patternDescription" jsonschema:"required,description=The transformation rule observed between each training input and output."`
	SolvingStrategy    string   `json:"solvingStrategy" jsonschema:"required,description=Step-by-step description of how to apply the rule to the test input."`
	Hints              []string `json:"hints,omitempty" jsonschema:"description=Short supporting observations that led to the pattern."`
	Confidence         int      `json:"confidence" jsonschema:"required,description=Self-reported confidence in the prediction from 1 to 100,minimum=1,maximum=100"`
}

// gridSchema describes a puzzle grid: an array of equal-length rows of
// integers 0-9, matching puzzle.Grid's wire shape.
func gridSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "integer", "minimum": 0, "maximum": 9},
		},
	}
}

// BuildStructuredOutputSpec reflects the fixed analysis fields into a JSON
// schema via invopop/jsonschema, then appends predictedOutput field(s)
// shaped to p: a single predictedOutput grid for a single-test puzzle, or
// predictedOutput1..N plus multiplePredictedOutputs for a multi-test one.
// analysis.Orchestrator calls this to populate Options.StructuredOutput
// for providers whose family supports it; grover and arc3 don't, since
// their prompts expect a Python fence and tool calls respectively, not a
// JSON explanation object.
func BuildStructuredOutputSpec(name string, p *puzzle.Puzzle) *StructuredOutputSpec {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(analysisSchemaBase))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")

	properties, _ := schemaMap["properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}
	required, _ := schemaMap["required"].([]any)

	if p.IsMultiTest() {
		for i := 1; i <= len(p.Test); i++ {
			key := predictedOutputKey(i)
			properties[key] = gridSchema()
			required = append(required, key)
		}
		properties["multiplePredictedOutputs"] = map[string]any{
			"type":        "boolean",
			"description": "Must be true: this puzzle has multiple test pairs.",
		}
		required = append(required, "multiplePredictedOutputs")
	} else {
		properties["predictedOutput"] = gridSchema()
		required = append(required, "predictedOutput")
	}

	return &StructuredOutputSpec{
		Name: name,
		Schema: map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
		Strict: true,
	}
}

func predictedOutputKey(i int) string {
	return "predictedOutput" + strconv.Itoa(i)
}
