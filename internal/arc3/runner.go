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
	"log/slog"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

const defaultMaxTurns = 20

// scorecardTTL is the server-side auto-expiry window spec.md §4.6 cites.
const scorecardTTL = 15 * time.Minute

// adapterResolver mirrors internal/grover's testability seam: the runner
// depends on the narrow Resolve contract rather than the concrete
// *provider.Registry so tests can inject scripted adapters without
// credentials.
type adapterResolver interface {
	Resolve(modelKey string) (provider.Adapter, config.ProviderFamily, error)
}

// FrameSink persists one unpacked frame as it is produced, matching
// spec.md §4.6's "persisted sequentially to arc3_frames" requirement. The
// runner calls it synchronously per frame so a subscriber reading the
// stream and a reader of the database never disagree about what happened.
// Implemented by internal/store.
type FrameSink interface {
	SaveFrame(ctx context.Context, f Frame) error
	SaveSession(ctx context.Context, s Session) error
}

// Runner drives the ARC-3 agent loop described in spec.md §4.6.
type Runner struct {
	registry adapterResolver
	client   *Client
	exec     *sandbox.Executor
	sink     FrameSink
}

func NewRunner(registry adapterResolver, client *Client, exec *sandbox.Executor, sink FrameSink) *Runner {
	return &Runner{registry: registry, client: client, exec: exec, sink: sink}
}

// Run executes the agent loop until a terminal frame state, MaxTurns is
// exhausted, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	adapter, _, err := r.registry.Resolve(opts.Model)
	if err != nil {
		return nil, err
	}

	session, current, startFrames, err := r.start(ctx, opts)
	if err != nil {
		return nil, err
	}

	dispatcher := NewDispatcher(r.client, r.exec, session)
	result := &RunResult{Session: *session, Frames: startFrames}

	system := SystemPrompt(opts.SystemPromptPreset)
	userPrompt := initialUserPrompt(opts.GameID, *current)
	previousResponseID := opts.PreviousResponseID

	for turn := 0; turn < maxTurns; turn++ {
		if current.State.Terminal() {
			streaming.Emit(ctx, streaming.EventAgentCompleted, map[string]any{"state": current.State, "score": current.Score})
			break
		}

		select {
		case <-ctx.Done():
			return result, apperrors.Cancellation()
		default:
		}

		if session.ScorecardExpired(time.Now(), scorecardTTL) {
			streaming.Log(ctx, slog.LevelWarn, "arc3 scorecard expired mid-run, reopening", "gameId", opts.GameID)
			cardID, err := r.client.OpenScorecard(ctx, opts.GameID)
			if err != nil {
				return result, err
			}
			session.ScorecardID = cardID
			session.ScorecardOpens = time.Now()
		}

		streaming.Emit(ctx, streaming.EventAgentReasoning, map[string]any{"turn": turn, "prompt": preview(userPrompt, 300)})

		req := provider.Request{
			Model:  opts.Model,
			System: system,
			User:   userPrompt,
			Options: provider.Options{
				PreviousResponseID: previousResponseID,
				UserAPIKey:         opts.UserAPIKey,
				Tools:              ToolDefinitions(),
			},
		}

		resp, err := adapter.Analyze(ctx, req)
		if err != nil {
			return result, err
		}
		previousResponseID = resp.ProviderResponseID
		result.InputTokens += resp.Usage.InputTokens
		result.OutputTokens += resp.Usage.OutputTokens
		result.ReasoningTokens += resp.Usage.ReasoningTokens
		result.TurnsUsed = turn + 1

		if len(resp.ToolCalls) == 0 {
			streaming.Log(ctx, slog.LevelInfo, "arc3 turn produced no tool calls, ending run", "turn", turn)
			break
		}

		observations := make([]string, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			streaming.Emit(ctx, streaming.EventAgentToolCall, map[string]any{"turn": turn, "tool": call.Name, "args": call.Arguments})

			toolResult, err := dispatcher.Dispatch(ctx, call, *current)
			if err != nil {
				return result, err
			}
			observations = append(observations, toolResult.Observation)
			streaming.Emit(ctx, streaming.EventAgentToolResult, map[string]any{"turn": turn, "tool": call.Name, "observation": preview(toolResult.Observation, 300)})

			for _, f := range toolResult.Frames {
				if err := r.sink.SaveFrame(ctx, f); err != nil {
					return result, err
				}
				streaming.Emit(ctx, streaming.EventGameFrameUpdate, map[string]any{
					"frameNumber":          f.FrameNumber,
					"isAnimation":          f.IsAnimation,
					"animationFrame":       f.AnimationFrame,
					"animationTotalFrames": f.AnimationTotalFrames,
					"isLastAnimationFrame": f.IsLastAnimationFrame,
					"state":                f.State,
				})
				result.Frames = append(result.Frames, f)
				current = &f
			}
		}

		userPrompt = toolResultPrompt(observations)
	}

	session.TotalFrames = len(result.Frames)
	if current.State.Terminal() {
		now := time.Now()
		session.State = current.State
		session.FinalScore = deref(current.Score)
		session.EndedAt = &now
		if err := r.client.CloseScorecard(ctx, session.ScorecardID); err != nil {
			streaming.Log(ctx, slog.LevelWarn, "arc3 close scorecard failed", "error", err.Error())
		}
	}
	if err := r.sink.SaveSession(ctx, *session); err != nil {
		return result, err
	}
	result.Session = *session
	return result, nil
}

// start either resumes a paused run (per spec.md §4.6 continuation safety:
// both ExistingGameGUID and LastFrame required) or opens a fresh scorecard
// and RESETs the game.
func (r *Runner) start(ctx context.Context, opts RunOptions) (*Session, *Frame, []Frame, error) {
	if opts.ExistingGameGUID != "" || opts.LastFrame != nil {
		if opts.ExistingGameGUID == "" || opts.LastFrame == nil {
			return nil, nil, nil, apperrors.InputValidation("resuming an arc3 run requires both existingGameGuid and lastFrame")
		}
		session := &Session{
			GUID:           opts.ExistingGameGUID,
			GameID:         opts.GameID,
			State:          opts.LastFrame.State,
			StartedAt:      time.Now(),
			ScorecardOpens: time.Now(),
		}
		return session, opts.LastFrame, nil, nil
	}

	cardID, err := r.client.OpenScorecard(ctx, opts.GameID)
	if err != nil {
		return nil, nil, nil, err
	}

	session := &Session{
		GameID:         opts.GameID,
		ScorecardID:    cardID,
		StartedAt:      time.Now(),
		ScorecardOpens: time.Now(),
		State:          StateNotPlayed,
	}

	raw, guid, err := r.client.Reset(ctx, opts.GameID, cardID)
	if err != nil {
		return nil, nil, nil, err
	}
	session.GUID = guid

	frames, err := unpackFrames(raw, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range frames {
		frames[i].ActionType = ActionReset
		if err := r.sink.SaveFrame(ctx, frames[i]); err != nil {
			return nil, nil, nil, err
		}
	}
	last := frames[len(frames)-1]
	session.State = last.State
	return session, &last, frames, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
