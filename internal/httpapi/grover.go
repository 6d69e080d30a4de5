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
	"github.com/82deutschmark/arc-explainer/internal/grover"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

type groverRequestBody struct {
	Temperature   float64 `json:"temperature"`
	MaxIterations *int    `json:"maxIterations"`
	UserAPIKey    string  `json:"userApiKey"`
}

// handleGrover opens a streaming session, launches the solver loop in the
// background bound to that session (internal/grover.Solver.Run emits
// streaming.Progress/Log events as it runs), and returns the session id
// immediately so the caller can subscribe over the WebSocket route.
func (deps *Deps) handleGrover(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleId")
	modelKey := chi.URLParam(r, "modelKey")

	var body groverRequestBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}
	maxIterations := -1 // sentinel for grover.Solver's default
	if body.MaxIterations != nil {
		maxIterations = *body.MaxIterations
	}

	p, err := deps.Puzzles.Load(puzzleID)
	if err != nil {
		respondError(w, apperrors.InputValidation("unknown puzzle %q", puzzleID))
		return
	}

	sessionID := deps.Bus.Open()
	runCtx, cancel := context.WithCancel(context.Background())
	deps.cancels.register(sessionID, cancel)

	go func() {
		defer deps.cancels.release(sessionID)
		defer cancel()

		ctx := streaming.WithSession(runCtx, deps.Bus, sessionID)
		exp, runErr := deps.Grover.Run(ctx, p, modelKey, grover.Options{
			MaxIterations: maxIterations,
			Temperature:   body.Temperature,
			UserAPIKey:    body.UserAPIKey,
		})
		if runErr != nil {
			streaming.Emit(ctx, streaming.EventStreamError, errorEventPayload(runErr))
			deps.Bus.Close(sessionID, "error")
			return
		}

		if _, saveErr := deps.Store.Explanations().SaveExplanation(ctx, exp); saveErr != nil {
			slog.Default().Error("grover: save explanation failed", "error", saveErr)
		}
		deps.Bus.Close(sessionID, "completed")
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"sessionId": sessionID})
}

// handleGroverWebSocket drains a Grover run's streaming session over a
// WebSocket connection until stream.end.
func (deps *Deps) handleGroverWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	drainWebSocket(w, r, deps.Bus, sessionID)
}
