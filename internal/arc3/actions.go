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

package arc3

import (
	"fmt"
	"strconv"
	"strings"
)

var intToAction = map[int]Action{
	0: ActionReset,
	1: Action1,
	2: Action2,
	3: Action3,
	4: Action4,
	5: Action5,
	6: Action6,
	7: Action7,
}

var stringToAction = map[string]Action{
	"RESET":   ActionReset,
	"ACTION1": Action1,
	"ACTION2": Action2,
	"ACTION3": Action3,
	"ACTION4": Action4,
	"ACTION5": Action5,
	"ACTION6": Action6,
	"ACTION7": Action7,
}

// NormalizeAction converts one ARC-3 API action token — an integer
// (0=RESET, 1..7=ACTION1..7), a numeric string, or an already-canonical
// string — into the canonical Action form (spec.md §4.6 available-actions
// normalization). Unrecognized tokens return ("", false).
func NormalizeAction(token any) (Action, bool) {
	switch v := token.(type) {
	case Action:
		if _, ok := stringToAction[string(v)]; ok {
			return v, true
		}
		return "", false
	case int:
		a, ok := intToAction[v]
		return a, ok
	case int64:
		a, ok := intToAction[int(v)]
		return a, ok
	case float64:
		a, ok := intToAction[int(v)]
		return a, ok
	case string:
		upper := strings.ToUpper(strings.TrimSpace(v))
		if a, ok := stringToAction[upper]; ok {
			return a, true
		}
		if n, err := strconv.Atoi(upper); err == nil {
			a, ok := intToAction[n]
			return a, ok
		}
		return "", false
	default:
		return "", false
	}
}

// NormalizeActions maps a raw available_actions payload (mixed
// ints/strings, as the API is inconsistent across game titles) into the
// canonical Action set, dropping anything unrecognized.
func NormalizeActions(raw []any) []Action {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Action, 0, len(raw))
	for _, token := range raw {
		if a, ok := NormalizeAction(token); ok {
			out = append(out, a)
		}
	}
	return out
}

// Allowed reports whether action is permitted given the frame's
// available_actions list. Per spec.md §4.6, an empty or missing list means
// no restriction.
func Allowed(available []Action, action Action) bool {
	if len(available) == 0 {
		return true
	}
	for _, a := range available {
		if a == action {
			return true
		}
	}
	return false
}

// ValidateAction enforces Allowed, returning a tool-dispatch error the
// agent loop surfaces back to the model as a tool-call failure rather than
// aborting the run (spec.md §4.6: "return a tool error if the agent
// tries").
func ValidateAction(available []Action, action Action) error {
	if Allowed(available, action) {
		return nil
	}
	return fmt.Errorf("action %s is not in available_actions %v for the current frame", action, available)
}

// ValidateCoordinate bounds-checks ACTION6's x,y payload to [0,63].
func ValidateCoordinate(p ActionParams) error {
	if p.X < 0 || p.X > 63 || p.Y < 0 || p.Y > 63 {
		return fmt.Errorf("action6 coordinates (%d,%d) out of bounds [0,63]", p.X, p.Y)
	}
	return nil
}
