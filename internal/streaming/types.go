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

// Package streaming implements the session-scoped event bus (spec.md
// §4.8): a session-id is allocated at request start, subscribers attach
// over SSE or WebSocket, and any code running inside the session's
// async context can emit events without threading a session parameter
// through every call.
package streaming

import "time"

// EventType enumerates the event shapes spec.md §4.8 names.
type EventType string

const (
	EventLog             EventType = "log"
	EventProgress        EventType = "progress"
	EventGameFrameUpdate EventType = "game.frame_update"
	EventAgentReasoning  EventType = "agent.reasoning"
	EventAgentToolCall   EventType = "agent.tool_call"
	EventAgentToolResult EventType = "agent.tool_result"
	EventAgentCompleted  EventType = "agent.completed"
	EventStreamInit      EventType = "stream.init"
	EventStreamEnd       EventType = "stream.end"
	EventStreamError     EventType = "stream.error"
)

// Event is one message delivered to a session's subscribers. Data carries
// the event-specific payload and must be JSON-serializable.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
