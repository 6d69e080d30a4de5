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

// Package httpapi wires every domain package into the chi-based REST, SSE,
// and WebSocket surface spec.md §6 names. Handlers are thin: they decode a
// request, call into internal/analysis, internal/grover, or internal/arc3,
// and translate the result (or apperrors.Error) into a response.
package httpapi

import (
	"github.com/82deutschmark/arc-explainer/internal/analysis"
	"github.com/82deutschmark/arc-explainer/internal/arc3"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/grover"
	"github.com/82deutschmark/arc-explainer/internal/observability"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/ratelimit"
	"github.com/82deutschmark/arc-explainer/internal/store"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

// Deps bundles every collaborator a handler might need. Built once in
// cmd/server's wiring and threaded through NewRouter.
type Deps struct {
	Config *config.ServerConfig

	Puzzles      *puzzle.Loader
	Registry     *provider.Registry
	Orchestrator *analysis.Orchestrator
	Grover       *grover.Solver
	ARC3         *arc3.Runner
	ARC3Client   *arc3.Client

	Store *store.Store
	Bus   *streaming.Bus

	ARC3Limiter *ratelimit.Limiter
	Metrics     *observability.Metrics

	cancels *cancelRegistry
}

// NewDeps wires a Deps ready to hand to NewRouter, initializing the
// internal cancel-registry every streamed-run handler shares.
func NewDeps(cfg *config.ServerConfig, puzzles *puzzle.Loader, registry *provider.Registry, orchestrator *analysis.Orchestrator, groverSolver *grover.Solver, arc3Runner *arc3.Runner, arc3Client *arc3.Client, st *store.Store, bus *streaming.Bus, arc3Limiter *ratelimit.Limiter, metrics *observability.Metrics) *Deps {
	return &Deps{
		Config:       cfg,
		Puzzles:      puzzles,
		Registry:     registry,
		Orchestrator: orchestrator,
		Grover:       groverSolver,
		ARC3:         arc3Runner,
		ARC3Client:   arc3Client,
		Store:        st,
		Bus:          bus,
		ARC3Limiter:  arc3Limiter,
		Metrics:      metrics,
		cancels:      newCancelRegistry(),
	}
}
