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

// Package cost estimates prompt token counts before a provider call and
// computes dollar cost from a provider's reported usage afterward. Every
// Analysis persisted by the store carries a computed cost (spec.md §3).
package cost

import (
	"strings"
	"sync"

	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/pkoukk/tiktoken-go"
)

// Rate is a model's per-million-token pricing. ReasoningPerMTok defaults
// to OutputPerMTok when zero, since most providers bill hidden reasoning
// tokens at the output rate.
type Rate struct {
	InputPerMTok     float64
	OutputPerMTok    float64
	ReasoningPerMTok float64
}

// rateTable holds approximate public per-model pricing, matched by prefix.
// Figures are USD per million tokens and are deliberately approximate —
// callers needing exact billing reconciliation should consult the
// provider's invoice, not this estimate.
var rateTable = []struct {
	prefix string
	rate   Rate
}{
	{"gpt-5", Rate{InputPerMTok: 1.25, OutputPerMTok: 10.00}},
	{"gpt-4o-mini", Rate{InputPerMTok: 0.15, OutputPerMTok: 0.60}},
	{"gpt-4o", Rate{InputPerMTok: 2.50, OutputPerMTok: 10.00}},
	{"gpt-4.1", Rate{InputPerMTok: 2.00, OutputPerMTok: 8.00}},
	{"o4-mini", Rate{InputPerMTok: 1.10, OutputPerMTok: 4.40}},
	{"o3-mini", Rate{InputPerMTok: 1.10, OutputPerMTok: 4.40}},
	{"o3", Rate{InputPerMTok: 10.00, OutputPerMTok: 40.00}},
	{"grok-4", Rate{InputPerMTok: 3.00, OutputPerMTok: 15.00}},
	{"grok", Rate{InputPerMTok: 2.00, OutputPerMTok: 10.00}},
	{"claude-opus", Rate{InputPerMTok: 15.00, OutputPerMTok: 75.00}},
	{"claude-sonnet", Rate{InputPerMTok: 3.00, OutputPerMTok: 15.00}},
	{"claude-haiku", Rate{InputPerMTok: 0.80, OutputPerMTok: 4.00}},
	{"gemini-2.5-pro", Rate{InputPerMTok: 1.25, OutputPerMTok: 10.00}},
	{"gemini-2.5-flash", Rate{InputPerMTok: 0.30, OutputPerMTok: 2.50}},
	{"gemini", Rate{InputPerMTok: 0.15, OutputPerMTok: 0.60}},
	{"deepseek", Rate{InputPerMTok: 0.28, OutputPerMTok: 0.42}},
}

// RateForModel returns the best-matching rate for a model key, stripping
// an "openrouter/" routing prefix and a "grover-" wrapper before matching.
// Unknown models return the zero Rate, so cost computes to 0 rather than
// panicking.
func RateForModel(modelKey string) Rate {
	key := strings.TrimPrefix(modelKey, "grover-")
	key = strings.TrimPrefix(key, "openrouter/")
	if slash := strings.Index(key, "/"); slash != -1 {
		key = key[slash+1:]
	}
	lower := strings.ToLower(key)
	for _, entry := range rateTable {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.rate
		}
	}
	return Rate{}
}

// Compute returns the dollar cost of one provider call given its reported
// token usage.
func Compute(modelKey string, usage provider.TokenUsage) float64 {
	rate := RateForModel(modelKey)
	reasoningRate := rate.ReasoningPerMTok
	if reasoningRate == 0 {
		reasoningRate = rate.OutputPerMTok
	}
	return float64(usage.InputTokens)/1_000_000*rate.InputPerMTok +
		float64(usage.OutputTokens)/1_000_000*rate.OutputPerMTok +
		float64(usage.ReasoningTokens)/1_000_000*reasoningRate
}

// encodingCache mirrors the teacher's per-model tiktoken encoding cache
// (pkg/utils/tokens.go), avoiding re-parsing the BPE ranks file per call.
var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// EstimateTokens returns an approximate pre-call token count for text,
// used to warn callers before they exceed a model's context window.
// Non-OpenAI-family models have no public BPE tables, so their count is an
// cl100k_base approximation, same as the teacher's GetEncodingForModel
// fallback; only a failure to load cl100k_base itself falls back further,
// to a 4-chars-per-token heuristic.
func EstimateTokens(modelKey, text string) int {
	enc := encodingFor(modelKey)
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func encodingFor(modelKey string) *tiktoken.Tiktoken {
	cacheMu.RLock()
	cached, ok := encodingCache[modelKey]
	cacheMu.RUnlock()
	if ok {
		return cached
	}

	enc, err := tiktoken.EncodingForModel(modelKey)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil
		}
	}

	cacheMu.Lock()
	encodingCache[modelKey] = enc
	cacheMu.Unlock()
	return enc
}
