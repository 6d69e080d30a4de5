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

package streaming

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

type binding struct {
	bus       *Bus
	sessionID string
}

// WithSession binds bus and sessionID to ctx so that services deep in the
// call tree (solver, adapter, parser, sandbox) can emit events without an
// explicit session parameter. The HTTP handlers call this once at the
// start of a session-scoped operation.
func WithSession(ctx context.Context, bus *Bus, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, binding{bus: bus, sessionID: sessionID})
}

func fromContext(ctx context.Context) (binding, bool) {
	b, ok := ctx.Value(ctxKey{}).(binding)
	return b, ok && b.bus != nil
}

// Emit publishes evt on the session bound to ctx, if any. Outside a
// session-scoped operation (e.g. a unit test, or a one-shot CLI run) this
// is a silent no-op — callers never need to check SessionID first.
func Emit(ctx context.Context, eventType EventType, data map[string]any) {
	b, ok := fromContext(ctx)
	if !ok {
		return
	}
	b.bus.Publish(b.sessionID, Event{Type: eventType, Data: data})
}

// Progress emits a `progress` event carrying phase/iteration, the shape
// spec.md §4.8 names for solver-loop timelines (Grover iterations, ARC-3
// turns).
func Progress(ctx context.Context, phase string, iteration int, payload map[string]any) {
	data := map[string]any{"phase": phase, "iteration": iteration}
	for k, v := range payload {
		data[k] = v
	}
	Emit(ctx, EventProgress, data)
}

// Log dual-writes to the process logger and, if ctx is bound to a session,
// broadcasts a `log` event — the async-context propagation spec.md §4.8
// requires so subscribers see the same log lines operators do.
func Log(ctx context.Context, level slog.Level, message string, args ...any) {
	slog.Default().Log(ctx, level, message, args...)

	b, ok := fromContext(ctx)
	if !ok {
		return
	}

	data := map[string]any{"level": level.String(), "message": message}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			data[key] = args[i+1]
		}
	}
	b.bus.Publish(b.sessionID, Event{Type: EventLog, Data: data})
}

// SessionID returns the session-id bound to ctx, if any.
func SessionID(ctx context.Context) (string, bool) {
	b, ok := fromContext(ctx)
	if !ok {
		return "", false
	}
	return b.sessionID, true
}
