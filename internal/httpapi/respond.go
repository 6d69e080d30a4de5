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
	"errors"
	"net/http"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

// respondJSON writes data as a JSON body with status, matching the
// teacher's a2a server helper of the same name.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorBody is the user-visible JSON shape spec.md §7 requires:
// {error: {kind, message, details?, retryable}}.
type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`
}

// respondError translates err into the standard error envelope. Errors
// that aren't a recognized *apperrors.Error are reported as an opaque
// 500 rather than leaking internals to the client.
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		respondJSON(w, appErr.HTTPStatus, errorBody{Error: errorPayload{
			Kind:      string(appErr.Kind),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Retryable: appErr.Retryable,
		}})
		return
	}
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: errorPayload{
		Kind:    "internal",
		Message: "internal server error",
	}})
}

// errorEventPayload is the {error:{...}} shape sent as a stream.error
// event's data, mirroring errorPayload for consistency across transports.
func errorEventPayload(err error) map[string]any {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return map[string]any{
			"kind":      string(appErr.Kind),
			"message":   appErr.Message,
			"retryable": appErr.Retryable,
		}
	}
	return map[string]any{"kind": "internal", "message": "internal server error", "retryable": false}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InputValidation("invalid request body: %v", err)
	}
	return nil
}
