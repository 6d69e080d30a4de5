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

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PuzzleMetadata is the row shape for the puzzles table. Grids themselves
// never pass through this package — they live on disk and are loaded
// directly by internal/puzzle's loader (spec.md §4.10: "puzzles (metadata
// only; grids live on disk)").
type PuzzleMetadata struct {
	ID         string
	Source     string
	TrainCount int
	TestCount  int
	CreatedAt  time.Time
}

type PuzzleStore struct{ *Store }

func (s *Store) Puzzles() *PuzzleStore { return &PuzzleStore{s} }

// SavePuzzleMetadata upserts one puzzle's metadata row. Saving an id that
// already exists updates its source and counts and keeps its created_at,
// rather than failing on the duplicate.
func (s *PuzzleStore) SavePuzzleMetadata(ctx context.Context, m PuzzleMetadata) error {
	cols := "id, source, train_count, test_count, created_at"
	values := placeholderList(s.Store, 5)

	var query string
	switch s.dialect {
	case "mysql":
		query = fmt.Sprintf(`INSERT INTO puzzles (%s) VALUES (%s)
    ON DUPLICATE KEY UPDATE source=VALUES(source), train_count=VALUES(train_count), test_count=VALUES(test_count)`, cols, values)
	case "postgres":
		query = fmt.Sprintf(`INSERT INTO puzzles (%s) VALUES (%s)
    ON CONFLICT (id) DO UPDATE SET source=EXCLUDED.source, train_count=EXCLUDED.train_count, test_count=EXCLUDED.test_count`, cols, values)
	default: // sqlite
		query = fmt.Sprintf(`INSERT INTO puzzles (%s) VALUES (%s)
    ON CONFLICT(id) DO UPDATE SET source=excluded.source, train_count=excluded.train_count, test_count=excluded.test_count`, cols, values)
	}

	_, err := s.db.ExecContext(ctx, query, m.ID, m.Source, m.TrainCount, m.TestCount, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("save puzzle metadata: %w", err)
	}
	return nil
}

// GetPuzzleMetadata loads one puzzle's metadata row by id.
func (s *PuzzleStore) GetPuzzleMetadata(ctx context.Context, id string) (*PuzzleMetadata, error) {
	query := fmt.Sprintf(`SELECT id, source, train_count, test_count, created_at FROM puzzles WHERE id = %s`, s.placeholder(1))

	var m PuzzleMetadata
	var source sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &source, &m.TrainCount, &m.TestCount, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get puzzle metadata: %w", err)
	}
	if source.Valid {
		m.Source = source.String
	}
	return &m, nil
}

// ListPuzzleMetadata returns every puzzle's metadata, ordered by id.
func (s *PuzzleStore) ListPuzzleMetadata(ctx context.Context) ([]PuzzleMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, train_count, test_count, created_at FROM puzzles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list puzzle metadata: %w", err)
	}
	defer rows.Close()

	var out []PuzzleMetadata
	for rows.Next() {
		var m PuzzleMetadata
		var source sql.NullString
		if err := rows.Scan(&m.ID, &source, &m.TrainCount, &m.TestCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan puzzle metadata: %w", err)
		}
		if source.Valid {
			m.Source = source.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
