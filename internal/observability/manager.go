package observability

import (
	"context"
	"net/http"
)

// Manager owns the Tracer and Metrics for one process and their shutdown.
type Manager struct {
	config  *Config
	tracer  *Tracer
	metrics *Metrics
}

// NewManager builds a Manager from cfg, starting the tracer and metrics
// registry. Either sub-system can be disabled independently via cfg.
func NewManager(ctx context.Context, cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()

	tracer, err := NewTracer(ctx, &cfg.Tracing)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(&cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Manager{config: cfg, tracer: tracer, metrics: metrics}, nil
}

func (m *Manager) Metrics() *Metrics { return m.metrics }

func (m *Manager) MetricsEnabled() bool { return m.config != nil && m.config.Metrics.Enabled }

func (m *Manager) TracingEnabled() bool { return m.config != nil && m.config.Tracing.Enabled }

func (m *Manager) MetricsEndpoint() string {
	if m.config == nil || m.config.Metrics.Endpoint == "" {
		return DefaultMetricsPath
	}
	return m.config.Metrics.Endpoint
}

// MetricsHandler returns the Prometheus scrape handler, mountable directly
// on the chi router at MetricsEndpoint().
func (m *Manager) MetricsHandler() http.Handler {
	return m.metrics.Handler()
}

func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.tracer == nil {
		return nil
	}
	return m.tracer.Shutdown(ctx)
}
