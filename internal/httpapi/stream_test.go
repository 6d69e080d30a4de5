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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

func TestWriteSSEEventFramesEventAndData(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSSEEvent(rec, "progress", map[string]any{"percent": 50})

	out := rec.Body.String()
	require.True(t, strings.HasPrefix(out, "event: progress\ndata: "))
	require.True(t, strings.HasSuffix(out, "\n\n"))
	require.Contains(t, out, `"percent":50`)
}

func TestDrainSSEUnknownSessionSendsStreamError(t *testing.T) {
	bus := streaming.NewBus()
	defer bus.Stop()

	req := httptest.NewRequest("GET", "/api/arc3/stream/missing", nil)
	rec := httptest.NewRecorder()

	drainSSE(rec, req, bus, "missing-session")

	require.Contains(t, rec.Body.String(), "event: "+string(streaming.EventStreamError))
	require.Contains(t, rec.Body.String(), "unknown stream session")
}

func TestDrainSSEEndsOnStreamEndEvent(t *testing.T) {
	bus := streaming.NewBus()
	defer bus.Stop()

	sessionID := bus.Open()
	bus.Publish(sessionID, streaming.Event{Type: streaming.EventStreamEnd})

	req := httptest.NewRequest("GET", "/api/arc3/stream/"+sessionID, nil)
	rec := httptest.NewRecorder()

	drainSSE(rec, req, bus, sessionID)

	require.Contains(t, rec.Body.String(), "event: "+string(streaming.EventStreamEnd))
}
