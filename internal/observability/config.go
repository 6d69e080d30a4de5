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

// Package observability wires OpenTelemetry tracing and Prometheus metrics
// across the provider adapters, solver loops, sandbox, and HTTP surface.
package observability

// Config controls tracing and metrics for one process.
type Config struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig configures span export. Exporter is "stdout" (development,
// grounded on the teacher's debug exporter pattern) or "none".
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Endpoint  string `yaml:"endpoint"`
}

// DefaultMetricsPath is where the Prometheus handler is mounted.
const DefaultMetricsPath = "/metrics"

func (c *Config) SetDefaults() {
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "arc-explainer"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "arc_explainer"
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = DefaultMetricsPath
	}
}
