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

// Package apperrors defines the error taxonomy shared by every layer of the
// harness. Callers dispatch on Kind via errors.As, never by string-matching
// messages (the one deliberate exception is the Grok schema-rejection sniff
// in the provider adapter, which inspects a provider response body, not one
// of our own errors).
package apperrors

import (
	"fmt"
	"time"
)

// Kind identifies a category of error for HTTP status mapping, retry
// policy, and client-facing reporting.
type Kind string

const (
	KindInputValidation   Kind = "input_validation"
	KindProviderAuth      Kind = "provider_auth"
	KindProviderRateLimit Kind = "provider_rate_limit"
	KindProviderTimeout   Kind = "provider_timeout"
	KindProviderSchema    Kind = "provider_schema"
	KindProviderProtocol  Kind = "provider_protocol"
	KindProviderMismatch  Kind = "provider_mismatch"
	KindParse             Kind = "parse"
	KindGridValidation    Kind = "grid_validation"
	KindSandbox           Kind = "sandbox"
	KindARC3API           Kind = "arc3_api"
	KindCancellation      Kind = "cancellation"
	KindPersistence       Kind = "persistence"
)

// Error is the common shape every layer returns for a recognized failure
// mode. It always carries a Kind so handlers can dispatch without string
// matching and a Retryable hint so callers don't need to rediscover policy.
type Error struct {
	Kind       Kind
	Message    string
	Retryable  bool
	RetryAfter time.Duration
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, status int, retryable bool, message string) *Error {
	return &Error{Kind: kind, Message: message, HTTPStatus: status, Retryable: retryable}
}

func Wrap(kind Kind, status int, retryable bool, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, HTTPStatus: status, Retryable: retryable, Err: err}
}

func InputValidation(format string, args ...any) *Error {
	return New(KindInputValidation, 400, false, fmt.Sprintf(format, args...))
}

func ProviderAuth(provider string, err error) *Error {
	return Wrap(KindProviderAuth, 401, false, "missing or invalid API key for "+provider, err)
}

func ProviderRateLimit(provider string, retryAfter time.Duration, err error) *Error {
	e := Wrap(KindProviderRateLimit, 429, true, "rate limited by "+provider, err)
	e.RetryAfter = retryAfter
	return e
}

func ProviderTimeout(provider string, err error) *Error {
	return Wrap(KindProviderTimeout, 504, false, "timed out calling "+provider, err)
}

func ProviderSchema(provider string, err error) *Error {
	return Wrap(KindProviderSchema, 422, false, "structured output rejected by "+provider, err)
}

func ProviderProtocol(provider string, err error) *Error {
	return Wrap(KindProviderProtocol, 502, false, "malformed response from "+provider, err)
}

// ProviderMismatch reports a continuation attempted across incompatible
// provider families (spec.md invariant 5). Actionable: callers must start a
// fresh chain rather than retry.
func ProviderMismatch(chainProvider, requestedProvider string) *Error {
	return New(KindProviderMismatch, 400, false,
		fmt.Sprintf("providerResponseId belongs to %q, cannot continue with %q — start a new chain", chainProvider, requestedProvider))
}

func Parse(raw string, err error) *Error {
	e := Wrap(KindParse, 422, false, "could not extract JSON payload from provider response", err)
	e.Details = map[string]any{"rawResponsePreview": preview(raw, 500)}
	return e
}

func GridValidation(reason string) *Error {
	return New(KindGridValidation, 200, false, reason)
}

func Sandbox(phase string, err error) *Error {
	return Wrap(KindSandbox, 200, false, "sandbox "+phase, err)
}

func ARC3API(reason string, retryable bool, err error) *Error {
	return Wrap(KindARC3API, 502, retryable, reason, err)
}

func Cancellation() *Error {
	return New(KindCancellation, 499, false, "operation cancelled")
}

func Persistence(err error) *Error {
	return Wrap(KindPersistence, 500, false, "persistence layer unavailable", err)
}

// PersistenceConflict signals a unique-constraint conflict that the caller
// could not resolve via idempotent merge (spec.md §7 PersistenceError).
func PersistenceConflict(err error) *Error {
	return Wrap(KindPersistence, 409, false, "conflicting row", err)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
