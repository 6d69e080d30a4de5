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

package config

import "fmt"

// DatabaseConfig holds connection settings for the persistence layer.
// Supports PostgreSQL, MySQL, and SQLite.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	Host     string `yaml:"host,omitempty" mapstructure:"host"`
	Port     int    `yaml:"port,omitempty" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
	MaxConns int    `yaml:"max_conns,omitempty" mapstructure:"max_conns"`
	MaxIdle  int    `yaml:"max_idle,omitempty" mapstructure:"max_idle"`
}

func (c *DatabaseConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
		if c.Database == "" {
			c.Database = DefaultDatabaseConfig("sqlite").Database
		}
	}
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 5
	}
	if c.Port == 0 {
		switch c.Driver {
		case "postgres":
			c.Port = 5432
		case "mysql":
			c.Port = 3306
		}
	}
	if c.Driver == "postgres" && c.SSLMode == "" {
		c.SSLMode = "disable"
	}
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	validDrivers := map[string]bool{"postgres": true, "mysql": true, "sqlite": true, "sqlite3": true}
	if !validDrivers[c.Driver] {
		return fmt.Errorf("invalid driver %q (valid: postgres, mysql, sqlite)", c.Driver)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Driver != "sqlite" && c.Driver != "sqlite3" && c.Host == "" {
		return fmt.Errorf("host is required for %s", c.Driver)
	}
	if c.MaxConns < 0 || c.MaxIdle < 0 {
		return fmt.Errorf("max_conns and max_idle must be non-negative")
	}
	return nil
}

// DSN returns the driver-appropriate connection string.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s", c.Host, c.Port, c.Database)
		if c.Username != "" {
			dsn += fmt.Sprintf(" user=%s", c.Username)
		}
		if c.Password != "" {
			dsn += fmt.Sprintf(" password=%s", c.Password)
		}
		if c.SSLMode != "" {
			dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
		}
		return dsn
	case "mysql":
		if c.Username != "" {
			return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.Username, c.Password, c.Host, c.Port, c.Database)
		}
		return fmt.Sprintf("tcp(%s:%d)/%s", c.Host, c.Port, c.Database)
	case "sqlite", "sqlite3":
		return c.Database
	default:
		return ""
	}
}

// DriverName returns the name registered with database/sql.
func (c *DatabaseConfig) DriverName() string {
	if c.Driver == "sqlite" {
		return "sqlite3"
	}
	return c.Driver
}

// Dialect returns the normalized dialect used by the query builder.
func (c *DatabaseConfig) Dialect() string {
	if c.Driver == "sqlite3" {
		return "sqlite"
	}
	return c.Driver
}

// DefaultDatabaseConfig returns sane defaults for zero-config local runs.
func DefaultDatabaseConfig(driver string) *DatabaseConfig {
	cfg := &DatabaseConfig{Driver: driver, MaxConns: 20, MaxIdle: 5}
	switch driver {
	case "sqlite", "sqlite3":
		cfg.Driver = "sqlite"
		cfg.Database = "./.arc-explainer/arc-explainer.db"
	case "postgres":
		cfg.Host = "localhost"
		cfg.Port = 5432
		cfg.Database = "arc_explainer"
		cfg.SSLMode = "disable"
	case "mysql":
		cfg.Host = "localhost"
		cfg.Port = 3306
		cfg.Database = "arc_explainer"
	}
	return cfg
}
