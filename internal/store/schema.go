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
	"fmt"
)

// autoIncrementPK returns the dialect-appropriate primary key column
// definition for an auto-incrementing bigint id.
func (s *Store) autoIncrementPK() string {
	switch s.dialect {
	case "postgres":
		return "BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// jsonColumn returns the dialect-appropriate column type for a JSON text
// blob. Every driver here is perfectly happy storing JSON as TEXT; we
// don't lean on postgres's native jsonb type because the same schema must
// also work unmodified against sqlite/mysql (spec.md §4.10: "grid fields
// are stored as JSON text").
func (s *Store) jsonColumn() string {
	return "TEXT"
}

// migrate creates every table spec.md §4.10 names. Tables are created with
// IF NOT EXISTS so repeated startups are idempotent; indexes are separate
// statements for sqlite compatibility, following the teacher's own
// migration style.
func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS puzzles (
    id VARCHAR(16) PRIMARY KEY,
    source VARCHAR(64),
    train_count INT NOT NULL,
    test_count INT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS explanations (
    id %s,
    puzzle_id VARCHAR(16) NOT NULL,
    model_key VARCHAR(128) NOT NULL,
    mode VARCHAR(32) NOT NULL,
    temperature DOUBLE PRECISION,
    reasoning_effort VARCHAR(16),
    reasoning_verbosity VARCHAR(16),
    reasoning_summary VARCHAR(16),
    input_tokens INT,
    output_tokens INT,
    reasoning_tokens INT,
    total_tokens INT,
    cost DOUBLE PRECISION,
    predicted_output %s,
    multiple_predicted_outputs BOOLEAN,
    multi_test_prediction_grids %s,
    is_prediction_correct BOOLEAN,
    multi_test_all_correct BOOLEAN,
    per_test_correct %s,
    confidence INT,
    pattern_description TEXT,
    solving_strategy TEXT,
    hints %s,
    provider_response_id VARCHAR(255),
    rebutting_explanation_id BIGINT,
    grover_iteration_count INT,
    grover_iterations %s,
    grover_best_program TEXT,
    system_prompt TEXT,
    user_prompt TEXT,
    raw_response TEXT,
    created_at TIMESTAMP NOT NULL
)`, s.autoIncrementPK(), s.jsonColumn(), s.jsonColumn(), s.jsonColumn(), s.jsonColumn(), s.jsonColumn()),

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_explanations_dedupe
    ON explanations(puzzle_id, model_key, provider_response_id)`,

		`CREATE INDEX IF NOT EXISTS idx_explanations_puzzle
    ON explanations(puzzle_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS arc3_sessions (
    guid VARCHAR(64) PRIMARY KEY,
    game_id VARCHAR(64) NOT NULL,
    scorecard_id VARCHAR(64),
    state VARCHAR(16) NOT NULL,
    final_score INT,
    win_score INT,
    total_frames INT,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP
)`),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS arc3_frames (
    session_guid VARCHAR(64) NOT NULL,
    frame_number INT NOT NULL,
    action_type VARCHAR(16) NOT NULL,
    action_params %s,
    caption TEXT,
    state VARCHAR(16),
    score INT,
    frame_data %s NOT NULL,
    available_actions %s,
    pixels_changed INT,
    is_animation BOOLEAN,
    animation_frame INT,
    animation_total_frames INT,
    is_last_animation_frame BOOLEAN,
    PRIMARY KEY (session_guid, frame_number)
)`, s.jsonColumn(), s.jsonColumn(), s.jsonColumn()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS feedback (
    id %s,
    explanation_id BIGINT NOT NULL,
    vote VARCHAR(16) NOT NULL,
    comment TEXT,
    created_at TIMESTAMP NOT NULL
)`, s.autoIncrementPK()),

		// ingestion_runs has no repository methods: static dataset ingestion
		// is an explicit non-goal (spec.md §1). The table is created so the
		// schema matches spec.md §4.10's table list exactly; nothing writes
		// to it yet.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ingestion_runs (
    id %s,
    source VARCHAR(128) NOT NULL,
    puzzle_count INT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
)`, s.autoIncrementPK()),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration statement: %w", err)
		}
	}
	return nil
}
