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
	"encoding/json"
	"fmt"
	"strings"
)

const baseSystemPrompt = `You are playing an ARC-3 interactive grid game. You perceive the game
through discrete frames (2D colored grids) and act through a small tool
registry. Use inspect_game_state to see what changed, analyze_grid to run
Python against the current grid when you need to count cells or detect
shapes, and the actionN tools to play. Always check available_actions
before choosing a move; the game will reject anything not listed there.`

const twitchPreset = `Play quickly and experimentally: try an action, observe the result, adjust.
Favor short reasoning and fast iteration over exhaustive planning.`

const playbookPreset = `Before acting, form an explicit hypothesis about the game's rules from the
frames you've seen so far. State the hypothesis, the action that tests it,
and what result would confirm or refute it.`

// SystemPrompt renders the agent's system prompt for preset.
func SystemPrompt(preset PromptPreset) string {
	switch preset {
	case PresetTwitch:
		return baseSystemPrompt + "\n\n" + twitchPreset
	case PresetPlaybook:
		return baseSystemPrompt + "\n\n" + playbookPreset
	default:
		return baseSystemPrompt
	}
}

// initialUserPrompt renders the first turn's prompt from the starting
// frame (or, on a continuation, the resumed lastFrame).
func initialUserPrompt(gameID string, frame Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %q has started. Here is the current frame:\n\n", gameID)
	b.WriteString(renderFrame(frame))
	b.WriteString("\nChoose a tool call to begin.")
	return b.String()
}

// toolResultPrompt renders one turn's tool observations back to the model
// as the new user message (the only content re-sent on a continuation
// call, per spec.md §4.1's Responses-API contract).
func toolResultPrompt(observations []string) string {
	var b strings.Builder
	for i, obs := range observations {
		fmt.Fprintf(&b, "Tool result %d:\n%s\n\n", i+1, obs)
	}
	return b.String()
}

func renderFrame(f Frame) string {
	payload, _ := json.MarshalIndent(map[string]any{
		"state":             f.State,
		"score":              f.Score,
		"available_actions":  f.AvailableActs,
		"grid":               f.FrameData,
	}, "", "  ")
	return string(payload)
}
