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
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

// discussionEligibilityWindow is spec.md §6's "≤30 days old" cutoff for
// the discussion-eligible listing.
const discussionEligibilityWindow = 30 * 24 * time.Hour

// handleDiscussionEligible lists explanations a discussion-mode turn can
// continue: those with a provider response id from a reasoning-capable
// (server-side-state) provider family, saved within the last 30 days.
func (deps *Deps) handleDiscussionEligible(w http.ResponseWriter, r *http.Request) {
	list, err := deps.Store.Explanations().ListEligibleForDiscussion(r.Context(), discussionEligibilityWindow)
	if err != nil {
		respondError(w, apperrors.Persistence(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"explanations": list})
}
