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

import "sync"

// cancelRegistry tracks the cancel function for each in-flight streamed
// run (Grover iterations, ARC-3 turns) so the cancel endpoints spec.md §6
// names can stop a run identified only by its stream session-id.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]func()
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]func())}
}

func (c *cancelRegistry) register(sessionID string, cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels[sessionID] = cancel
}

func (c *cancelRegistry) cancel(sessionID string) bool {
	c.mu.Lock()
	cancel, ok := c.cancels[sessionID]
	delete(c.cancels, sessionID)
	c.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

func (c *cancelRegistry) release(sessionID string) {
	c.mu.Lock()
	delete(c.cancels, sessionID)
	c.mu.Unlock()
}
