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

package arc3

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
)

// toolNames are the canonical names the provider's function-calling surface
// advertises (spec.md §4.6 tool registry).
const (
	toolInspectGameState = "inspect_game_state"
	toolAnalyzeGrid      = "analyze_grid"
	toolResetGame        = "reset_game"
)

var simpleActionTools = map[string]Action{
	"action1": Action1,
	"action2": Action2,
	"action3": Action3,
	"action4": Action4,
	"action5": Action5,
	"action7": Action7,
}

// ToolDefinitions returns the function-calling surface exposed to the
// agent. Every entry round-trips through provider.ToolDefinition so any
// adapter's native tool-calling path can advertise it unmodified.
func ToolDefinitions() []provider.ToolDefinition {
	defs := []provider.ToolDefinition{
		{
			Name:        toolInspectGameState,
			Description: "Return the current settled frame: grid, available actions, score, and state.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name: toolAnalyzeGrid,
			Description: "Execute python_code in a sandbox with `grid`, `current_layer`, numpy, scipy.ndimage, and " +
				"helpers find_connected_components, detect_symmetry, get_bounding_box, color_counts bound. " +
				"Printed stdout is returned as the observation.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"python_code": map[string]any{"type": "string"},
				},
				"required": []string{"python_code"},
			},
		},
		{
			Name:        toolResetGame,
			Description: "Reset the game to its initial state.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:       "action6",
			Description: "Coordinate action at (x, y), each in [0,63].",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{"type": "integer", "minimum": 0, "maximum": 63},
					"y": map[string]any{"type": "integer", "minimum": 0, "maximum": 63},
				},
				"required": []string{"x", "y"},
			},
		},
	}
	for name := range simpleActionTools {
		defs = append(defs, provider.ToolDefinition{
			Name:        name,
			Description: fmt.Sprintf("Dispatch the simple %s action.", name),
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		})
	}
	return defs
}

// Dispatcher executes one tool call against a live session, enforcing
// available-actions restrictions and running analyze_grid through the
// Python sandbox.
type Dispatcher struct {
	client  *Client
	exec    *sandbox.Executor
	session *Session
}

func NewDispatcher(client *Client, exec *sandbox.Executor, session *Session) *Dispatcher {
	return &Dispatcher{client: client, exec: exec, session: session}
}

// ToolResult is what one dispatched tool call hands back to the agent loop:
// a text observation for the model, plus any frames the call produced
// (empty for inspect_game_state/analyze_grid, which don't advance state).
type ToolResult struct {
	Observation string
	Frames      []Frame
}

// Dispatch routes one provider.ToolCall to its handler. It never returns a
// transport-level error for an agent mistake (e.g. a disallowed action or
// bad analyze_grid code) — those come back as a ToolResult whose
// Observation describes the failure, so the agent can recover in its next
// turn. A non-nil error here means the dispatch itself could not be
// attempted (unknown tool name, transport failure talking to the game
// API).
func (d *Dispatcher) Dispatch(ctx context.Context, call provider.ToolCall, current Frame) (ToolResult, error) {
	switch call.Name {
	case toolInspectGameState:
		return d.inspectGameState(current), nil
	case toolAnalyzeGrid:
		return d.analyzeGrid(ctx, call, current)
	case toolResetGame:
		return d.dispatchAction(ctx, current, ActionReset, nil)
	case "action6":
		return d.action6(ctx, call, current)
	default:
		if action, ok := simpleActionTools[call.Name]; ok {
			return d.dispatchAction(ctx, current, action, nil)
		}
		return ToolResult{}, fmt.Errorf("unknown tool %q", call.Name)
	}
}

func (d *Dispatcher) inspectGameState(current Frame) ToolResult {
	payload, _ := json.Marshal(map[string]any{
		"grid":               current.FrameData,
		"available_actions":  current.AvailableActs,
		"score":              current.Score,
		"state":              current.State,
	})
	return ToolResult{Observation: string(payload)}
}

func (d *Dispatcher) analyzeGrid(ctx context.Context, call provider.ToolCall, current Frame) (ToolResult, error) {
	code, _ := call.Arguments["python_code"].(string)
	if code == "" {
		return ToolResult{Observation: "analyze_grid requires a python_code argument"}, nil
	}

	var currentLayer [][]int
	if len(current.FrameData) > 0 {
		currentLayer = current.FrameData[0]
	}

	out, err := d.exec.RunAnalysis(ctx, code, map[string]any{
		"grid":          current.FrameData,
		"current_layer": currentLayer,
	})
	if err != nil {
		return ToolResult{Observation: fmt.Sprintf("analyze_grid failed: %v", err)}, nil
	}
	return ToolResult{Observation: out}, nil
}

func (d *Dispatcher) action6(ctx context.Context, call provider.ToolCall, current Frame) (ToolResult, error) {
	x, _ := toInt(call.Arguments["x"])
	y, _ := toInt(call.Arguments["y"])
	params := ActionParams{X: x, Y: y}
	if err := ValidateCoordinate(params); err != nil {
		return ToolResult{Observation: err.Error()}, nil
	}
	return d.dispatchAction(ctx, current, Action6, &params)
}

func (d *Dispatcher) dispatchAction(ctx context.Context, current Frame, action Action, params *ActionParams) (ToolResult, error) {
	if action != ActionReset {
		if err := ValidateAction(current.AvailableActs, action); err != nil {
			return ToolResult{Observation: err.Error()}, nil
		}
	}

	var (
		raw rawFrame
		err error
	)
	switch {
	case action == ActionReset:
		raw, d.session.GUID, err = d.client.Reset(ctx, d.session.GameID, d.session.ScorecardID)
	case action == Action6:
		raw, err = d.client.ActCoordinate(ctx, d.session.GUID, *params)
	default:
		raw, err = d.client.Act(ctx, d.session.GUID, action)
	}
	if err != nil {
		return ToolResult{}, err
	}

	frames, err := unpackFrames(raw, current.FrameNumber+1)
	if err != nil {
		return ToolResult{}, err
	}
	for i := range frames {
		frames[i].ActionType = action
		frames[i].ActionParams = params
		var prevLayers [][][]int
		if i == 0 {
			prevLayers = current.FrameData
		} else {
			prevLayers = frames[i-1].FrameData
		}
		frames[i].PixelsChanged = pixelsChanged(prevLayers, frames[i].FrameData)
	}

	observation, _ := json.Marshal(map[string]any{
		"state":              frames[len(frames)-1].State,
		"score":              frames[len(frames)-1].Score,
		"available_actions":  frames[len(frames)-1].AvailableActs,
		"frame_count":        len(frames),
	})
	return ToolResult{Observation: string(observation), Frames: frames}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
