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
	"fmt"
	"sync"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/observability"
)

// Registry resolves a model key to a concrete Adapter, instantiating and
// caching one adapter per provider family. Mirrors the service factory's
// dispatch-table pattern (spec.md §4.9) but confined to provider selection.
type Registry struct {
	mu       sync.Mutex
	configs  map[config.ProviderFamily]config.ProviderConfig
	metrics  *observability.Metrics
	adapters map[config.ProviderFamily]Adapter
}

// NewRegistry builds a Registry from the process's per-family provider
// configs. Adapters are constructed lazily on first use.
func NewRegistry(configs map[config.ProviderFamily]config.ProviderConfig, metrics *observability.Metrics) *Registry {
	return &Registry{
		configs:  configs,
		metrics:  metrics,
		adapters: make(map[config.ProviderFamily]Adapter),
	}
}

// Resolve maps modelKey to its adapter via config.ResolveFamily, building
// and caching the adapter on first use.
func (r *Registry) Resolve(modelKey string) (Adapter, config.ProviderFamily, error) {
	family, err := config.ResolveFamily(modelKey)
	if err != nil {
		return nil, "", apperrors.InputValidation("%v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[family]; ok {
		return adapter, family, nil
	}

	cfg, ok := r.configs[family]
	if !ok {
		return nil, family, apperrors.InputValidation("no provider configured for family %q", family)
	}

	adapter, err := newAdapter(family, cfg, r.metrics)
	if err != nil {
		return nil, family, err
	}
	r.adapters[family] = adapter
	return adapter, family, nil
}

func newAdapter(family config.ProviderFamily, cfg config.ProviderConfig, metrics *observability.Metrics) (Adapter, error) {
	switch family {
	case config.FamilyOpenAI:
		return NewOpenAI(cfg, metrics), nil
	case config.FamilyGrok:
		return NewGrok(cfg, metrics), nil
	case config.FamilyAnthropic:
		return NewAnthropic(cfg, metrics), nil
	case config.FamilyGemini:
		return NewGemini(cfg, metrics), nil
	case config.FamilyOpenRouter:
		return NewOpenRouter(cfg, metrics), nil
	case config.FamilyDeepSeek:
		return NewDeepSeek(cfg, metrics), nil
	default:
		return nil, fmt.Errorf("unsupported provider family %q", family)
	}
}

// CheckContinuation enforces spec.md §4.1's provider mismatch rule: a
// continuation can only proceed if chainFamily (the family that produced
// the stored providerResponseId) matches the family the current model key
// resolves to.
func CheckContinuation(chainFamily, requestedFamily config.ProviderFamily) error {
	if chainFamily == "" || chainFamily == requestedFamily {
		return nil
	}
	return apperrors.ProviderMismatch(string(chainFamily), string(requestedFamily))
}
