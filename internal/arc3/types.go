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

// Package arc3 drives an LLM agent through an interactive ARC-3 grid game:
// remote session/scorecard lifecycle, frame unpacking, a function-calling
// tool registry, and the turn loop that ties them to a provider.Adapter.
package arc3

import "time"

// GameState is the lifecycle state the remote API reports for a frame.
type GameState string

const (
	StateNotPlayed   GameState = "NOT_PLAYED"
	StateInProgress  GameState = "IN_PROGRESS"
	StateNotFinished GameState = "NOT_FINISHED"
	StateWin         GameState = "WIN"
	StateGameOver    GameState = "GAME_OVER"
)

// Terminal reports whether a session in this state has nothing left to do.
func (s GameState) Terminal() bool {
	return s == StateWin || s == StateGameOver
}

// Action is a canonical, normalized action token. The remote API may speak
// integers (0=RESET, 1..7=ACTION1..7) or strings; every frame and tool
// dispatch in this package works exclusively in this canonical form.
type Action string

const (
	ActionReset   Action = "RESET"
	Action1       Action = "ACTION1"
	Action2       Action = "ACTION2"
	Action3       Action = "ACTION3"
	Action4       Action = "ACTION4"
	Action5       Action = "ACTION5"
	Action6       Action = "ACTION6"
	Action7       Action = "ACTION7"
)

// ActionParams carries the coordinate payload ACTION6 requires; zero value
// for every other action.
type ActionParams struct {
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`
}

// Session is the mutable, remote-guid-keyed record of one ARC-3 run.
// Mirrors the data model's ARC-3 Session entity.
type Session struct {
	GUID           string
	GameID         string
	ScorecardID    string
	State          GameState
	FinalScore     int
	WinScore       int
	TotalFrames    int
	StartedAt      time.Time
	EndedAt        *time.Time
	ScorecardOpens time.Time
}

// ScorecardExpired reports whether the scorecard opened for this session has
// outlived the server-side ~15 minute auto-expiry window (spec.md §4.6).
func (s *Session) ScorecardExpired(now time.Time, ttl time.Duration) bool {
	if s.ScorecardID == "" {
		return false
	}
	return now.Sub(s.ScorecardOpens) > ttl
}

// Frame is one numbered entry in a session's history, child of Session in
// the data model. FrameData carries the full unpacked 3D layer array this
// frame represents; Pixel layers are [layer][row][col] integers in [0,15].
type Frame struct {
	SessionGUID   string
	FrameNumber   int
	ActionType    Action
	ActionParams  *ActionParams
	Caption       string
	State         GameState
	Score         *int
	FrameData     [][][]int
	AvailableActs []Action
	PixelsChanged int

	// Animation metadata, populated only when this frame was split out of
	// a multi-frame API response (spec.md §4.6 frame unpacking).
	IsAnimation          bool
	AnimationFrame       int
	AnimationTotalFrames int
	IsLastAnimationFrame bool
}

// Settled reports whether this frame is the authoritative reasoning anchor
// (the last frame of an animation burst, or the sole frame of a 3D
// response) as opposed to an intermediate animation frame.
func (f *Frame) Settled() bool {
	return !f.IsAnimation || f.IsLastAnimationFrame
}

// RunOptions configure one agent-runner invocation (spec.md §4.6 inputs).
type RunOptions struct {
	GameID              string
	Model               string
	SystemPromptPreset  PromptPreset
	MaxTurns            int
	UserAPIKey          string
	StreamSessionID     string

	// Continuation context. Both fields are required together to resume a
	// paused run; the zero value means "start fresh".
	ExistingGameGUID string
	LastFrame        *Frame
	PreviousResponseID string
}

// PromptPreset selects the agent's system-prompt register.
type PromptPreset string

const (
	PresetTwitch   PromptPreset = "twitch"
	PresetPlaybook PromptPreset = "playbook"
	PresetCustom   PromptPreset = "custom"
)

// RunResult is what the agent loop returns once the session reaches a
// terminal state or exhausts MaxTurns.
type RunResult struct {
	Session     Session
	Frames      []Frame
	TurnsUsed   int
	InputTokens int
	OutputTokens int
	ReasoningTokens int
}
