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
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the full REST/SSE/WS surface spec.md
// §6 names. Middleware order follows the teacher's pkg/server chain:
// request id / recover (chi's own), then logging, then metrics, then CORS.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(loggingMiddleware)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	r.Use(corsMiddleware(deps.Config.CORS))

	r.Get("/healthz", deps.handleHealth)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/puzzle", func(r chi.Router) {
		r.Post("/analyze/{puzzleId}/{modelKey}", deps.handleAnalyze)
		r.Post("/save-explained/{puzzleId}", deps.handleSaveExplained)
		r.Get("/{puzzleId}/explanations", deps.handleListExplanations)
		r.Post("/grover/{puzzleId}/{modelKey}", deps.handleGrover)
	})

	r.Route("/api/arc3", func(r chi.Router) {
		r.Post("/stream/prepare", deps.handleARC3StreamPrepare)
		r.Get("/stream/{sessionId}", deps.handleARC3StreamSubscribe)
		r.Post("/stream/cancel/{sessionId}", deps.handleARC3StreamCancel)
	})

	r.Get("/api/model-dataset/performance/{modelName}/{datasetName}", deps.handleModelDatasetPerformance)
	r.Get("/api/discussion/eligible", deps.handleDiscussionEligible)

	r.Get("/ws/grover/{sessionId}", deps.handleGroverWebSocket)

	return r
}

func (deps *Deps) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
