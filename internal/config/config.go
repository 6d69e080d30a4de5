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

// Package config loads the layered YAML+env configuration for the server
// and CLI: provider credentials, database connection, observability,
// sandbox limits, and rate limits.
package config

import "fmt"

// Config is the root configuration object, decoded from a YAML file with
// ${VAR} environment expansion applied first.
type Config struct {
	Server       ServerConfig              `yaml:"server" mapstructure:"server"`
	Database     DatabaseConfig            `yaml:"database" mapstructure:"database"`
	Providers    map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Observability ObservabilityConfig      `yaml:"observability" mapstructure:"observability"`
	Logging      LoggingConfig             `yaml:"logging" mapstructure:"logging"`
	Sandbox      SandboxConfig             `yaml:"sandbox" mapstructure:"sandbox"`
	RateLimit    RateLimitConfig           `yaml:"rate_limit" mapstructure:"rate_limit"`
	PromptsDir   string                    `yaml:"prompts_dir,omitempty" mapstructure:"prompts_dir"`
	PuzzlesDir   string                    `yaml:"puzzles_dir,omitempty" mapstructure:"puzzles_dir"`
}

// ObservabilityConfig mirrors internal/observability.Config's YAML shape so
// the root config can be decoded in one pass without an import cycle.
type ObservabilityConfig struct {
	Tracing struct {
		Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
		Exporter     string  `yaml:"exporter,omitempty" mapstructure:"exporter"`
		ServiceName  string  `yaml:"service_name,omitempty" mapstructure:"service_name"`
		SamplingRate float64 `yaml:"sampling_rate,omitempty" mapstructure:"sampling_rate"`
	} `yaml:"tracing" mapstructure:"tracing"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
		Namespace string `yaml:"namespace,omitempty" mapstructure:"namespace"`
		Endpoint  string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	} `yaml:"metrics" mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`
	Format     string `yaml:"format,omitempty" mapstructure:"format"`
	WithSource bool   `yaml:"with_source,omitempty" mapstructure:"with_source"`
	File       string `yaml:"file,omitempty" mapstructure:"file"`
}

// SandboxConfig holds the sandbox section of the config file. The Python
// subprocess executor in internal/sandbox does not read it: the interpreter
// (python3), the 5s Grover and 10s analyze_grid timeouts and the 8KB output
// cap are constants of that package.
type SandboxConfig struct {
	PythonPath              string `yaml:"python_path,omitempty" mapstructure:"python_path"`
	GroverTimeoutSeconds     int    `yaml:"grover_timeout_seconds,omitempty" mapstructure:"grover_timeout_seconds"`
	AnalyzeTimeoutSeconds    int    `yaml:"analyze_timeout_seconds,omitempty" mapstructure:"analyze_timeout_seconds"`
	MaxOutputBytes           int    `yaml:"max_output_bytes,omitempty" mapstructure:"max_output_bytes"`
}

// RateLimitConfig bounds ARC-3 action throughput. Provider calls are not
// rate limited.
type RateLimitConfig struct {
	ARC3RequestsPerMinute int `yaml:"arc3_requests_per_minute,omitempty" mapstructure:"arc3_requests_per_minute"`
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	for key, p := range c.Providers {
		p.SetDefaults()
		c.Providers[key] = p
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = "arc-explainer"
	}
	if c.Observability.Tracing.Exporter == "" {
		c.Observability.Tracing.Exporter = "stdout"
	}
	if c.Observability.Tracing.SamplingRate == 0 {
		c.Observability.Tracing.SamplingRate = 1.0
	}
	if c.Observability.Metrics.Namespace == "" {
		c.Observability.Metrics.Namespace = "arc_explainer"
	}
	if c.Observability.Metrics.Endpoint == "" {
		c.Observability.Metrics.Endpoint = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Sandbox.PythonPath == "" {
		c.Sandbox.PythonPath = "python3"
	}
	if c.Sandbox.GroverTimeoutSeconds == 0 {
		c.Sandbox.GroverTimeoutSeconds = 5
	}
	if c.Sandbox.AnalyzeTimeoutSeconds == 0 {
		c.Sandbox.AnalyzeTimeoutSeconds = 10
	}
	if c.Sandbox.MaxOutputBytes == 0 {
		c.Sandbox.MaxOutputBytes = 64 * 1024
	}
	if c.RateLimit.ARC3RequestsPerMinute == 0 {
		c.RateLimit.ARC3RequestsPerMinute = 600
	}
	if c.PromptsDir == "" {
		c.PromptsDir = "./prompts"
	}
	if c.PuzzlesDir == "" {
		c.PuzzlesDir = "./data/puzzles"
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	for key, p := range c.Providers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("providers.%s: %w", key, err)
		}
	}
	return nil
}
