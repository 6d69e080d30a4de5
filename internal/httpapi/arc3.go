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

package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/arc3"
	"github.com/82deutschmark/arc-explainer/internal/ratelimit"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

type arc3StreamPrepareBody struct {
	GameID              string       `json:"gameId"`
	Model               string       `json:"model"`
	SystemPromptPreset  string       `json:"systemPromptPreset"`
	MaxTurns            int          `json:"maxTurns"`
	UserAPIKey          string       `json:"userApiKey"`
	ExistingGameGUID    string       `json:"existingGameGuid"`
	PreviousResponseID  string       `json:"previousResponseId"`
	LastFrame           *arc3.Frame  `json:"lastFrame"`
}

// handleARC3StreamPrepare rate-limits per game id (spec.md §4.6's 600rpm
// pacing), opens a streaming session, and launches the agent loop in the
// background so the caller can immediately subscribe over SSE.
func (deps *Deps) handleARC3StreamPrepare(w http.ResponseWriter, r *http.Request) {
	var body arc3StreamPrepareBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.GameID == "" || body.Model == "" {
		respondError(w, apperrors.InputValidation("gameId and model are required"))
		return
	}

	if deps.ARC3Limiter != nil {
		if _, ok := deps.ARC3Limiter.CheckAndRecord(ratelimit.ScopeGame, body.GameID, ratelimit.WindowMinute); !ok {
			retryAfter := deps.ARC3Limiter.RetryAfter(ratelimit.ScopeGame, body.GameID, ratelimit.WindowMinute)
			rateErr := &ratelimit.ErrRateLimited{Scope: ratelimit.ScopeGame, Identifier: body.GameID, RetryAfter: retryAfter}
			respondError(w, apperrors.ProviderRateLimit("arc3", retryAfter, rateErr))
			return
		}
	}

	sessionID := deps.Bus.Open()
	runCtx, cancel := context.WithCancel(context.Background())
	deps.cancels.register(sessionID, cancel)

	opts := arc3.RunOptions{
		GameID:              body.GameID,
		Model:               body.Model,
		SystemPromptPreset:  arc3.PromptPreset(body.SystemPromptPreset),
		MaxTurns:            body.MaxTurns,
		UserAPIKey:          body.UserAPIKey,
		StreamSessionID:     sessionID,
		ExistingGameGUID:    body.ExistingGameGUID,
		LastFrame:           body.LastFrame,
		PreviousResponseID:  body.PreviousResponseID,
	}
	if opts.SystemPromptPreset == "" {
		opts.SystemPromptPreset = arc3.PresetTwitch
	}

	go func() {
		defer deps.cancels.release(sessionID)
		defer cancel()

		ctx := streaming.WithSession(runCtx, deps.Bus, sessionID)
		result, runErr := deps.ARC3.Run(ctx, opts)
		if runErr != nil {
			streaming.Emit(ctx, streaming.EventStreamError, errorEventPayload(runErr))
			deps.Bus.Close(sessionID, "error")
			return
		}
		slog.Default().Info("arc3 run completed", "gameId", body.GameID, "turns", result.TurnsUsed, "state", result.Session.State)
		deps.Bus.Close(sessionID, "completed")
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"sessionId": sessionID})
}

// handleARC3StreamSubscribe is the SSE endpoint a client attaches to after
// preparing a run, grounded on the teacher's rest_gateway.go SSE handler.
func (deps *Deps) handleARC3StreamSubscribe(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	drainSSE(w, r, deps.Bus, sessionID)
}

// handleARC3StreamCancel stops an in-flight run's goroutine and closes its
// streaming session, used when a player abandons a game mid-turn.
func (deps *Deps) handleARC3StreamCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if !deps.cancels.cancel(sessionID) {
		respondError(w, apperrors.InputValidation("no active run for session %q", sessionID))
		return
	}
	deps.Bus.Close(sessionID, "cancelled")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
