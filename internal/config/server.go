package config

import "fmt"

// ServerConfig configures the chi-based HTTP surface (REST, SSE, WebSocket).
type ServerConfig struct {
	Host string `yaml:"host,omitempty" mapstructure:"host"`
	Port int    `yaml:"port,omitempty" mapstructure:"port"`

	CORS *CORSConfig `yaml:"cors,omitempty" mapstructure:"cors"`

	// StreamingTTLMinutes bounds how long an idle streaming session's
	// subscriber queue is kept before eviction.
	StreamingTTLMinutes int `yaml:"streaming_ttl_minutes,omitempty" mapstructure:"streaming_ttl_minutes"`

	// StreamingQueueSize bounds the per-session event backlog before the
	// bus starts dropping events and injecting an overflow warning.
	StreamingQueueSize int `yaml:"streaming_queue_size,omitempty" mapstructure:"streaming_queue_size"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods,omitempty" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers,omitempty" mapstructure:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials,omitempty" mapstructure:"allow_credentials"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.StreamingTTLMinutes == 0 {
		c.StreamingTTLMinutes = 15
	}
	if c.StreamingQueueSize == 0 {
		c.StreamingQueueSize = 500
	}
	if c.CORS == nil {
		c.CORS = &CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.StreamingTTLMinutes < 0 {
		return fmt.Errorf("streaming_ttl_minutes must be non-negative")
	}
	if c.StreamingQueueSize < 0 {
		return fmt.Errorf("streaming_queue_size must be non-negative")
	}
	return nil
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
