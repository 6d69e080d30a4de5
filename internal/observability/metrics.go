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

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the provider adapters, solver
// loops, sandbox, and streaming bus.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls        *prometheus.CounterVec
	providerCallDuration  *prometheus.HistogramVec
	providerTokensInput   *prometheus.CounterVec
	providerTokensOutput  *prometheus.CounterVec
	providerTokensReason  *prometheus.CounterVec
	providerErrors        *prometheus.CounterVec

	groverIterations   *prometheus.CounterVec
	groverProgramScore *prometheus.HistogramVec

	arc3Actions    *prometheus.CounterVec
	arc3Frames     *prometheus.CounterVec
	arc3GamesTotal *prometheus.CounterVec

	sandboxExecutions *prometheus.CounterVec
	sandboxDuration   *prometheus.HistogramVec

	streamingSessionsActive *prometheus.GaugeVec
	streamingQueueDepth     *prometheus.HistogramVec
	streamingDropped        *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "arc_explainer"
	}
	m := &Metrics{registry: prometheus.NewRegistry()}

	ns := cfg.Namespace

	m.providerCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "provider", Name: "calls_total", Help: "Provider adapter calls by model and mode",
	}, []string{"model", "mode", "status"})
	m.providerCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "provider", Name: "call_duration_seconds", Help: "Provider call latency",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
	}, []string{"model"})
	m.providerTokensInput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "provider", Name: "tokens_input_total", Help: "Input tokens consumed",
	}, []string{"model"})
	m.providerTokensOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "provider", Name: "tokens_output_total", Help: "Output tokens produced",
	}, []string{"model"})
	m.providerTokensReason = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "provider", Name: "tokens_reasoning_total", Help: "Reasoning tokens produced",
	}, []string{"model"})
	m.providerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "provider", Name: "errors_total", Help: "Provider errors by kind",
	}, []string{"model", "kind"})

	m.groverIterations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "grover", Name: "iterations_total", Help: "Grover solver iterations run",
	}, []string{"model"})
	m.groverProgramScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "grover", Name: "program_score", Help: "Grover program training score (0-10)",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	}, []string{"model"})

	m.arc3Actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "arc3", Name: "actions_total", Help: "ARC-3 actions dispatched",
	}, []string{"game_id", "action"})
	m.arc3Frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "arc3", Name: "frames_total", Help: "ARC-3 frames persisted",
	}, []string{"game_id"})
	m.arc3GamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "arc3", Name: "games_total", Help: "ARC-3 runs by terminal state",
	}, []string{"game_id", "state"})

	m.sandboxExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "sandbox", Name: "executions_total", Help: "Sandbox program executions by outcome",
	}, []string{"outcome"})
	m.sandboxDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "sandbox", Name: "duration_seconds", Help: "Sandbox execution wall time",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"outcome"})

	m.streamingSessionsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Subsystem: "streaming", Name: "sessions_active", Help: "Open streaming sessions",
	}, []string{"transport"})
	m.streamingQueueDepth = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "streaming", Name: "queue_depth", Help: "Event queue depth at emit time",
		Buckets: prometheus.LinearBuckets(0, 50, 11),
	}, []string{"session_id"})
	m.streamingDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "streaming", Name: "events_dropped_total", Help: "Events dropped due to full subscriber queue",
	}, []string{"reason"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: "http", Name: "requests_total", Help: "HTTP requests by route and status",
	}, []string{"route", "method", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: "http", Name: "duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	m.registry.MustRegister(
		m.providerCalls, m.providerCallDuration, m.providerTokensInput, m.providerTokensOutput, m.providerTokensReason, m.providerErrors,
		m.groverIterations, m.groverProgramScore,
		m.arc3Actions, m.arc3Frames, m.arc3GamesTotal,
		m.sandboxExecutions, m.sandboxDuration,
		m.streamingSessionsActive, m.streamingQueueDepth, m.streamingDropped,
		m.httpRequests, m.httpDuration,
	)

	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordProviderCall(model, mode string, duration time.Duration, inputTok, outputTok, reasoningTok int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerCalls.WithLabelValues(model, mode, status).Inc()
	m.providerCallDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.providerTokensInput.WithLabelValues(model).Add(float64(inputTok))
	m.providerTokensOutput.WithLabelValues(model).Add(float64(outputTok))
	m.providerTokensReason.WithLabelValues(model).Add(float64(reasoningTok))
}

func (m *Metrics) RecordProviderError(model string, kind string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(model, kind).Inc()
}

func (m *Metrics) RecordGroverIteration(model string, bestScore float64) {
	if m == nil {
		return
	}
	m.groverIterations.WithLabelValues(model).Inc()
	m.groverProgramScore.WithLabelValues(model).Observe(bestScore)
}

func (m *Metrics) RecordARC3Action(gameID, action string) {
	if m == nil {
		return
	}
	m.arc3Actions.WithLabelValues(gameID, action).Inc()
}

func (m *Metrics) RecordARC3Frame(gameID string) {
	if m == nil {
		return
	}
	m.arc3Frames.WithLabelValues(gameID).Inc()
}

func (m *Metrics) RecordARC3Terminal(gameID, state string) {
	if m == nil {
		return
	}
	m.arc3GamesTotal.WithLabelValues(gameID, state).Inc()
}

func (m *Metrics) RecordSandboxExecution(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sandboxExecutions.WithLabelValues(outcome).Inc()
	m.sandboxDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) SetStreamingSessionsActive(transport string, n int) {
	if m == nil {
		return
	}
	m.streamingSessionsActive.WithLabelValues(transport).Set(float64(n))
}

func (m *Metrics) RecordStreamingQueueDepth(sessionID string, depth int) {
	if m == nil {
		return
	}
	m.streamingQueueDepth.WithLabelValues(sessionID).Observe(float64(depth))
}

func (m *Metrics) RecordStreamingDropped(reason string) {
	if m == nil {
		return
	}
	m.streamingDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
