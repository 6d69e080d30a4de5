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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

// drainSSE writes bus events for sessionID as text/event-stream frames
// until stream.end or the client disconnects, matching the teacher's
// rest_gateway.go handleStreamingMessageSSE/restStreamWrapper pattern.
func drainSSE(w http.ResponseWriter, r *http.Request, bus *streaming.Bus, sessionID string) {
	events, ok := bus.Subscribe(sessionID)
	if !ok {
		sendSSEError(w, "unknown stream session")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendSSEError(w, "streaming unsupported")
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case evt, open := <-events:
			if !open {
				return
			}
			writeSSEEvent(w, string(evt.Type), evt.Data)
			flusher.Flush()
			if evt.Type == streaming.EventStreamEnd {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

func sendSSEError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	writeSSEEvent(w, string(streaming.EventStreamError), map[string]any{"message": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// drainWebSocket upgrades the connection and forwards bus events for
// sessionID as {type, sessionId, timestamp, data} JSON frames until
// stream.end, mirroring the teacher's a2a/server.go WebSocket loop.
func drainWebSocket(w http.ResponseWriter, r *http.Request, bus *streaming.Bus, sessionID string) {
	events, ok := bus.Subscribe(sessionID)
	if !ok {
		http.Error(w, "unknown stream session", http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Default().Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for evt := range events {
		if err := conn.WriteJSON(evt); err != nil {
			return
		}
		if evt.Type == streaming.EventStreamEnd {
			return
		}
	}
}
