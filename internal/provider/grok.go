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

package provider

import (
	"context"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/httpclient"
	"github.com/82deutschmark/arc-explainer/internal/observability"
)

// GrokAdapter shares the OpenAI Responses wire shape (xAI's Responses API is
// wire-compatible) but Grok rejects strict/deeply-nested JSON schemas with a
// 503 "Grammar too complex" error. spec.md §4.1 requires a relaxed schema
// and, failing that, one fallback retry with the schema stripped entirely.
type GrokAdapter struct {
	inner *OpenAIAdapter
}

func NewGrok(cfg config.ProviderConfig, metrics *observability.Metrics) *GrokAdapter {
	inner := &OpenAIAdapter{
		cfg:     cfg,
		client:  httpclient.New(httpclient.WithHeaderParser(httpclient.ParseGrokHeaders)),
		metrics: metrics,
		family:  config.FamilyGrok,
	}
	return &GrokAdapter{inner: inner}
}

func (a *GrokAdapter) Capabilities() Capabilities {
	return Capabilities{
		Family:                   config.FamilyGrok,
		SupportsServerSideState:  true,
		SupportsStructuredOutput: true,
		SupportsStreaming:        true,
		SupportsTools:            true,
		SupportsVision:           true,
	}
}

// Analyze relaxes the schema (no top-level additionalProperties or required
// list) before the first attempt, then — if the provider still rejects it
// with a grammar/schema error — retries exactly once with no schema at all,
// relying on prompt-level JSON instructions instead.
func (a *GrokAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.Options.StructuredOutput != nil {
		relaxed := *req.Options.StructuredOutput
		relaxed.Schema = relaxSchema(relaxed.Schema)
		relaxed.Strict = false
		req.Options.StructuredOutput = &relaxed
	}

	started := time.Now()
	result, err := a.inner.Analyze(ctx, req)
	if err == nil {
		return result, nil
	}

	var ae *apperrors.Error
	if e, ok := err.(*apperrors.Error); ok {
		ae = e
	}
	if ae == nil || ae.Kind != apperrors.KindProviderSchema || req.Options.StructuredOutput == nil {
		return result, err
	}

	// Fallback: strip the schema entirely and retry once.
	fallbackReq := req
	fallbackReq.Options.StructuredOutput = nil
	result, fallbackErr := a.inner.Analyze(ctx, fallbackReq)
	if a.inner.metrics != nil {
		a.inner.metrics.RecordProviderError(req.Model, "schema_fallback")
	}
	if result != nil {
		result.Duration = time.Since(started)
	}
	return result, fallbackErr
}

// relaxSchema drops the top-level additionalProperties and required keys
// (nested objects are left as they are), since Grok's grammar compiler
// chokes on strict schemas that OpenAI's accepts.
func relaxSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if k == "additionalProperties" {
			continue
		}
		out[k] = v
	}
	delete(out, "required")
	return out
}
