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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// queueCapacity bounds each session's pending-event buffer. Once full,
	// Publish drops the event, logs a single overflow warning and offers a
	// warning event to the queue (dropped too if no slot has freed), rather
	// than blocking the publisher or growing without bound.
	queueCapacity = 500

	// sessionTTL is how long an idle session (no Publish or Subscribe) is
	// kept alive before the reaper drains it with a stream.end event.
	sessionTTL = 15 * time.Minute

	reapInterval = time.Minute
)

// session holds one subscriber's queue and bookkeeping. Only one
// subscriber is expected per session (one SSE connection or one
// WebSocket), but Publish never blocks on it being attached.
type session struct {
	id         string
	queue      chan Event
	mu         sync.Mutex
	lastActive time.Time
	closed     bool
	overflowed bool
}

// Bus is the process-wide session registry. The scheduling model (spec.md
// §5) is single-process/cooperative, but the Bus is still safe for
// concurrent use since HTTP handlers, the solver loops, and the reaper
// goroutine all touch it independently.
type Bus struct {
	mu       sync.RWMutex
	sessions map[string]*session

	stopReaper chan struct{}
}

// NewBus constructs a Bus and starts its background reaper.
func NewBus() *Bus {
	b := &Bus{
		sessions:   make(map[string]*session),
		stopReaper: make(chan struct{}),
	}
	go b.reapLoop()
	return b
}

// Stop halts the reaper goroutine. Callers shutting down the process may
// call this; it is not required for correctness within a request's
// lifetime.
func (b *Bus) Stop() {
	close(b.stopReaper)
}

// Open allocates a new session-id and emits stream.init on it.
func (b *Bus) Open() string {
	id := uuid.NewString()
	s := &session{
		id:         id,
		queue:      make(chan Event, queueCapacity),
		lastActive: time.Now(),
	}

	b.mu.Lock()
	b.sessions[id] = s
	b.mu.Unlock()

	b.Publish(id, Event{Type: EventStreamInit, Data: map[string]any{"sessionId": id}})
	return id
}

// Subscribe returns the channel a handler drains to stream events (via SSE
// long-poll or a WebSocket write loop). Closing the returned channel is
// Close's responsibility, not the subscriber's.
func (b *Bus) Subscribe(sessionID string) (<-chan Event, bool) {
	b.mu.RLock()
	s, ok := b.sessions[sessionID]
	b.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch()
	return s.queue, true
}

// Publish enqueues one event for sessionID. A missing session is a no-op —
// callers that emit speculatively (e.g. log lines from code that may or
// may not be running inside a streamed request) should not have to check
// first.
func (b *Bus) Publish(sessionID string, evt Event) {
	b.mu.RLock()
	s, ok := b.sessions[sessionID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	evt.SessionID = sessionID
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	s.touch()

	select {
	case s.queue <- evt:
	default:
		s.mu.Lock()
		alreadyWarned := s.overflowed
		s.overflowed = true
		s.mu.Unlock()
		if !alreadyWarned {
			slog.Warn("streaming session queue full, dropping events", "sessionId", sessionID)
			select {
			case s.queue <- Event{
				Type:      EventLog,
				SessionID: sessionID,
				Timestamp: time.Now(),
				Data:      map[string]any{"level": "warn", "message": "event queue overflow, some events dropped"},
			}:
			default:
			}
		}
	}
}

// Close emits stream.end with reason and removes the session, draining any
// subscriber. Safe to call more than once.
func (b *Bus) Close(sessionID string, reason string) {
	b.mu.Lock()
	s, ok := b.sessions[sessionID]
	if ok {
		delete(b.sessions, sessionID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if alreadyClosed {
		return
	}

	select {
	case s.queue <- Event{Type: EventStreamEnd, SessionID: sessionID, Timestamp: time.Now(), Data: map[string]any{"reason": reason}}:
	default:
	}
	close(s.queue)
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *session) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

func (b *Bus) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopReaper:
			return
		case <-ticker.C:
			b.reapExpired()
		}
	}
}

func (b *Bus) reapExpired() {
	b.mu.RLock()
	var expired []string
	for id, s := range b.sessions {
		if s.idleSince() > sessionTTL {
			expired = append(expired, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range expired {
		slog.Info("streaming session expired", "sessionId", id)
		b.Close(id, "expired")
	}
}
