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

// Command server runs the ARC-AGI analysis harness's HTTP/SSE/WebSocket
// surface: the same process serves single-shot analysis, Grover iterative
// solving, and the ARC-3 interactive agent runner, all wired from one
// config file (spec.md §6).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/analysis"
	"github.com/82deutschmark/arc-explainer/internal/arc3"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/grover"
	"github.com/82deutschmark/arc-explainer/internal/httpapi"
	"github.com/82deutschmark/arc-explainer/internal/logx"
	"github.com/82deutschmark/arc-explainer/internal/observability"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/ratelimit"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/82deutschmark/arc-explainer/internal/store"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logOutput *os.File = os.Stderr
	var closeLogFile func()
	if cfg.Logging.File != "" {
		f, closer, err := logx.OpenLogFile(cfg.Logging.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
			os.Exit(1)
		}
		logOutput, closeLogFile = f, closer
		defer closeLogFile()
	}
	logger := logx.Init(logx.ParseLevel(cfg.Logging.Level), logOutput, cfg.Logging.WithSource)
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewMetrics(&observability.MetricsConfig{
		Enabled:   cfg.Observability.Metrics.Enabled,
		Namespace: cfg.Observability.Metrics.Namespace,
		Endpoint:  cfg.Observability.Metrics.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	st, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	providerConfigs := make(map[config.ProviderFamily]config.ProviderConfig, len(cfg.Providers))
	for key, p := range cfg.Providers {
		p.Family = config.ProviderFamily(key)
		providerConfigs[p.Family] = p
	}
	registry := provider.NewRegistry(providerConfigs, metrics)

	puzzles := puzzle.NewLoader(cfg.PuzzlesDir)
	exec := sandbox.NewExecutor()
	orchestrator := analysis.NewOrchestrator(registry)
	groverSolver := grover.NewSolver(registry, exec)

	arc3Client := arc3.NewClient(os.Getenv("ARC3_API_KEY"))
	arc3Runner := arc3.NewRunner(registry, arc3Client, exec, st.ARC3())

	bus := streaming.NewBus()
	defer bus.Stop()

	arc3Limiter := ratelimit.New(int64(cfg.RateLimit.ARC3RequestsPerMinute))

	deps := httpapi.NewDeps(&cfg.Server, puzzles, registry, orchestrator, groverSolver, arc3Runner, arc3Client, st, bus, arc3Limiter, metrics)
	router := httpapi.NewRouter(deps)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
