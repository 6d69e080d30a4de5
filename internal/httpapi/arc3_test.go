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
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/ratelimit"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

func TestHandleARC3StreamPrepareRejectsOverLimitGame(t *testing.T) {
	limiter := ratelimit.New(1)
	deps := &Deps{ARC3Limiter: limiter, cancels: newCancelRegistry()}

	body := []byte(`{"gameId":"game-1","model":"gpt-5"}`)
	// exhaust the one-per-minute allowance directly, without going through
	// the handler (which would launch a background run we can't await here).
	_, ok := limiter.CheckAndRecord(ratelimit.ScopeGame, "game-1", ratelimit.WindowMinute)
	require.True(t, ok)

	req2 := httptest.NewRequest(http.MethodPost, "/api/arc3/stream/prepare", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	deps.handleARC3StreamPrepare(rec2, req2)

	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
	require.Contains(t, rec2.Body.String(), "rate limited by arc3")
}

func TestHandleARC3StreamPrepareRejectsMissingFields(t *testing.T) {
	deps := &Deps{cancels: newCancelRegistry()}

	req := httptest.NewRequest(http.MethodPost, "/api/arc3/stream/prepare", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	deps.handleARC3StreamPrepare(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleARC3StreamCancelWithNoActiveRun(t *testing.T) {
	deps := &Deps{cancels: newCancelRegistry()}

	r := chi.NewRouter()
	r.Post("/api/arc3/stream/cancel/{sessionId}", deps.handleARC3StreamCancel)

	req := httptest.NewRequest(http.MethodPost, "/api/arc3/stream/cancel/nonexistent", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleARC3StreamCancelStopsRegisteredRun(t *testing.T) {
	deps := &Deps{cancels: newCancelRegistry()}
	cancelled := false
	deps.cancels.register("sess-1", func() { cancelled = true })

	bus := streaming.NewBus()
	t.Cleanup(bus.Stop)
	deps.Bus = bus

	r := chi.NewRouter()
	r.Post("/api/arc3/stream/cancel/{sessionId}", deps.handleARC3StreamCancel)

	req := httptest.NewRequest(http.MethodPost, "/api/arc3/stream/cancel/sess-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, cancelled)
}
