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
	"encoding/json"
	"fmt"

	"github.com/82deutschmark/arc-explainer/internal/arc3"
)

// ARC3Store is the repository for ARC-3 sessions and frames. It implements
// arc3.FrameSink, the narrow seam arc3.Runner depends on so the agent loop
// never imports this package directly.
type ARC3Store struct{ *Store }

func (s *Store) ARC3() *ARC3Store { return &ARC3Store{s} }

var _ arc3.FrameSink = (*ARC3Store)(nil)

// SaveFrame upserts one frame keyed by (session_guid, frame_number) — the
// data model's declared unique invariant (spec.md §3). Upsert rather than
// plain insert because a resumed run may re-persist the last frame of the
// prior run before issuing its first new action.
func (s *ARC3Store) SaveFrame(ctx context.Context, f arc3.Frame) error {
	var actionParams sql.NullString
	if f.ActionParams != nil {
		b, err := json.Marshal(f.ActionParams)
		if err != nil {
			return fmt.Errorf("marshal action_params: %w", err)
		}
		actionParams = sql.NullString{String: string(b), Valid: true}
	}

	frameData, err := json.Marshal(f.FrameData)
	if err != nil {
		return fmt.Errorf("marshal frame_data: %w", err)
	}
	availableActions, err := json.Marshal(f.AvailableActs)
	if err != nil {
		return fmt.Errorf("marshal available_actions: %w", err)
	}

	var score sql.NullInt64
	if f.Score != nil {
		score = sql.NullInt64{Int64: int64(*f.Score), Valid: true}
	}

	query := s.upsertFrameQuery()
	_, err = s.db.ExecContext(ctx, query,
		f.SessionGUID, f.FrameNumber, string(f.ActionType), actionParams,
		f.Caption, string(f.State), score, string(frameData), string(availableActions),
		f.PixelsChanged, f.IsAnimation, f.AnimationFrame, f.AnimationTotalFrames, f.IsLastAnimationFrame,
	)
	if err != nil {
		return fmt.Errorf("save arc3 frame: %w", err)
	}
	return nil
}

// upsertFrameQuery builds the dialect-appropriate INSERT .. ON CONFLICT
// statement. Grounded on the teacher's v2/task/store.go Save method, which
// branches the same way across postgres/mysql/sqlite.
func (s *ARC3Store) upsertFrameQuery() string {
	cols := "session_guid, frame_number, action_type, action_params, caption, state, score, frame_data, available_actions, pixels_changed, is_animation, animation_frame, animation_total_frames, is_last_animation_frame"
	values := placeholderList(s.Store, 14)

	switch s.dialect {
	case "mysql":
		return fmt.Sprintf(`INSERT INTO arc3_frames (%s) VALUES (%s)
    ON DUPLICATE KEY UPDATE action_type=VALUES(action_type), action_params=VALUES(action_params),
    caption=VALUES(caption), state=VALUES(state), score=VALUES(score), frame_data=VALUES(frame_data),
    available_actions=VALUES(available_actions), pixels_changed=VALUES(pixels_changed),
    is_animation=VALUES(is_animation), animation_frame=VALUES(animation_frame),
    animation_total_frames=VALUES(animation_total_frames), is_last_animation_frame=VALUES(is_last_animation_frame)`, cols, values)
	case "postgres":
		return fmt.Sprintf(`INSERT INTO arc3_frames (%s) VALUES (%s)
    ON CONFLICT (session_guid, frame_number) DO UPDATE SET action_type=EXCLUDED.action_type,
    action_params=EXCLUDED.action_params, caption=EXCLUDED.caption, state=EXCLUDED.state,
    score=EXCLUDED.score, frame_data=EXCLUDED.frame_data, available_actions=EXCLUDED.available_actions,
    pixels_changed=EXCLUDED.pixels_changed, is_animation=EXCLUDED.is_animation,
    animation_frame=EXCLUDED.animation_frame, animation_total_frames=EXCLUDED.animation_total_frames,
    is_last_animation_frame=EXCLUDED.is_last_animation_frame`, cols, values)
	default: // sqlite
		return fmt.Sprintf(`INSERT INTO arc3_frames (%s) VALUES (%s)
    ON CONFLICT(session_guid, frame_number) DO UPDATE SET action_type=excluded.action_type,
    action_params=excluded.action_params, caption=excluded.caption, state=excluded.state,
    score=excluded.score, frame_data=excluded.frame_data, available_actions=excluded.available_actions,
    pixels_changed=excluded.pixels_changed, is_animation=excluded.is_animation,
    animation_frame=excluded.animation_frame, animation_total_frames=excluded.animation_total_frames,
    is_last_animation_frame=excluded.is_last_animation_frame`, cols, values)
	}
}

// SaveSession upserts the session row. Called once at start (fresh runs)
// and again whenever the runner finalizes or re-saves session state.
func (s *ARC3Store) SaveSession(ctx context.Context, sess arc3.Session) error {
	query := s.upsertSessionQuery()
	_, err := s.db.ExecContext(ctx, query,
		sess.GUID, sess.GameID, sess.ScorecardID, string(sess.State),
		sess.FinalScore, sess.WinScore, sess.TotalFrames, sess.StartedAt, sess.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("save arc3 session: %w", err)
	}
	return nil
}

func (s *ARC3Store) upsertSessionQuery() string {
	cols := "guid, game_id, scorecard_id, state, final_score, win_score, total_frames, started_at, ended_at"
	values := placeholderList(s.Store, 9)

	switch s.dialect {
	case "mysql":
		return fmt.Sprintf(`INSERT INTO arc3_sessions (%s) VALUES (%s)
    ON DUPLICATE KEY UPDATE game_id=VALUES(game_id), scorecard_id=VALUES(scorecard_id), state=VALUES(state),
    final_score=VALUES(final_score), win_score=VALUES(win_score), total_frames=VALUES(total_frames),
    started_at=VALUES(started_at), ended_at=VALUES(ended_at)`, cols, values)
	case "postgres":
		return fmt.Sprintf(`INSERT INTO arc3_sessions (%s) VALUES (%s)
    ON CONFLICT (guid) DO UPDATE SET game_id=EXCLUDED.game_id, scorecard_id=EXCLUDED.scorecard_id,
    state=EXCLUDED.state, final_score=EXCLUDED.final_score, win_score=EXCLUDED.win_score,
    total_frames=EXCLUDED.total_frames, started_at=EXCLUDED.started_at, ended_at=EXCLUDED.ended_at`, cols, values)
	default: // sqlite
		return fmt.Sprintf(`INSERT INTO arc3_sessions (%s) VALUES (%s)
    ON CONFLICT(guid) DO UPDATE SET game_id=excluded.game_id, scorecard_id=excluded.scorecard_id,
    state=excluded.state, final_score=excluded.final_score, win_score=excluded.win_score,
    total_frames=excluded.total_frames, started_at=excluded.started_at, ended_at=excluded.ended_at`, cols, values)
	}
}

// GetSession loads one session by guid.
func (s *ARC3Store) GetSession(ctx context.Context, guid string) (*arc3.Session, error) {
	query := fmt.Sprintf(`SELECT guid, game_id, scorecard_id, state, final_score, win_score, total_frames, started_at, ended_at
FROM arc3_sessions WHERE guid = %s`, s.placeholder(1))

	var sess arc3.Session
	var state string
	var scorecardID sql.NullString
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, guid).Scan(
		&sess.GUID, &sess.GameID, &scorecardID, &state, &sess.FinalScore, &sess.WinScore,
		&sess.TotalFrames, &sess.StartedAt, &endedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get arc3 session: %w", err)
	}
	sess.State = arc3.GameState(state)
	if scorecardID.Valid {
		sess.ScorecardID = scorecardID.String
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// ListFrames returns every frame recorded for guid, in frame-number order —
// the contiguous-numbering invariant spec.md §3 declares for this table.
func (s *ARC3Store) ListFrames(ctx context.Context, guid string) ([]arc3.Frame, error) {
	query := fmt.Sprintf(`SELECT session_guid, frame_number, action_type, action_params, caption, state, score,
    frame_data, available_actions, pixels_changed, is_animation, animation_frame, animation_total_frames, is_last_animation_frame
FROM arc3_frames WHERE session_guid = %s ORDER BY frame_number ASC`, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, guid)
	if err != nil {
		return nil, fmt.Errorf("list arc3 frames: %w", err)
	}
	defer rows.Close()

	var out []arc3.Frame
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFrame(row rowScanner) (arc3.Frame, error) {
	var f arc3.Frame
	var actionType, state string
	var actionParams sql.NullString
	var score sql.NullInt64
	var frameDataJSON, availableActionsJSON string

	if err := row.Scan(
		&f.SessionGUID, &f.FrameNumber, &actionType, &actionParams, &f.Caption, &state, &score,
		&frameDataJSON, &availableActionsJSON, &f.PixelsChanged,
		&f.IsAnimation, &f.AnimationFrame, &f.AnimationTotalFrames, &f.IsLastAnimationFrame,
	); err != nil {
		return f, fmt.Errorf("scan arc3 frame: %w", err)
	}

	f.ActionType = arc3.Action(actionType)
	f.State = arc3.GameState(state)
	if score.Valid {
		v := int(score.Int64)
		f.Score = &v
	}
	if actionParams.Valid {
		var p arc3.ActionParams
		if err := json.Unmarshal([]byte(actionParams.String), &p); err == nil {
			f.ActionParams = &p
		}
	}
	_ = json.Unmarshal([]byte(frameDataJSON), &f.FrameData)
	_ = json.Unmarshal([]byte(availableActionsJSON), &f.AvailableActs)

	return f, nil
}
