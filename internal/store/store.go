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

// Package store is the repository layer over database/sql (spec.md
// §4.10): puzzles (metadata only), explanations, ARC-3 sessions/frames,
// and feedback. Repository boundary is strict — callers never see raw
// rows, only the domain objects internal/puzzle, internal/explanation,
// and internal/arc3 already define.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/82deutschmark/arc-explainer/internal/config"
)

// Store wraps a *sql.DB with the dialect its queries were built for. Every
// repository type in this package embeds *Store rather than a bare *sql.DB
// so query text can branch on dialect in one place.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects using cfg, applies the pool-size limits spec.md §5 names
// ("bounded pool, size ~20"), and runs schema migration.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: cfg.Dialect()}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// placeholder returns the dialect-correct bound-parameter token for the
// nth (1-indexed) argument: postgres uses $n, mysql/sqlite use ?.
func (s *Store) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
