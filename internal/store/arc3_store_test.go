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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/arc3"
)

func TestSaveAndGetSessionRoundTrips(t *testing.T) {
	s := newTestStore(t)
	store := s.ARC3()
	ctx := context.Background()

	sess := arc3.Session{
		GUID:        "guid-1",
		GameID:      "ls20-016295f7601d",
		ScorecardID: "card-1",
		State:       arc3.StateNotPlayed,
		StartedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx, "guid-1")
	require.NoError(t, err)
	require.Equal(t, sess.GameID, got.GameID)
	require.Equal(t, sess.ScorecardID, got.ScorecardID)
	require.Equal(t, arc3.StateNotPlayed, got.State)

	sess.State = arc3.StateWin
	sess.FinalScore = 5
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	sess.EndedAt = &now
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err = store.GetSession(ctx, "guid-1")
	require.NoError(t, err)
	require.Equal(t, arc3.StateWin, got.State)
	require.Equal(t, 5, got.FinalScore)
	require.NotNil(t, got.EndedAt)
}

func TestSaveFrameAndListFramesOrdered(t *testing.T) {
	s := newTestStore(t)
	store := s.ARC3()
	ctx := context.Background()

	score0 := 0
	frame0 := arc3.Frame{
		SessionGUID:   "guid-2",
		FrameNumber:   0,
		ActionType:    arc3.ActionReset,
		State:         arc3.StateNotFinished,
		Score:         &score0,
		FrameData:     [][][]int{{{1, 2}, {3, 4}}},
		AvailableActs: []arc3.Action{arc3.Action1, arc3.Action2},
	}
	score1 := 1
	frame1 := arc3.Frame{
		SessionGUID:  "guid-2",
		FrameNumber:  1,
		ActionType:   arc3.Action1,
		State:        arc3.StateNotFinished,
		Score:        &score1,
		FrameData:    [][][]int{{{5, 6}, {7, 8}}},
		PixelsChanged: 2,
	}

	require.NoError(t, store.SaveFrame(ctx, frame0))
	require.NoError(t, store.SaveFrame(ctx, frame1))

	frames, err := store.ListFrames(ctx, "guid-2")
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, 0, frames[0].FrameNumber)
	require.Equal(t, 1, frames[1].FrameNumber)
	require.Equal(t, arc3.ActionReset, frames[0].ActionType)
	require.Equal(t, []arc3.Action{arc3.Action1, arc3.Action2}, frames[0].AvailableActs)
	require.Equal(t, 2, frames[1].PixelsChanged)
}

func TestSaveFrameUpsertsOnSameKey(t *testing.T) {
	s := newTestStore(t)
	store := s.ARC3()
	ctx := context.Background()

	frame := arc3.Frame{
		SessionGUID: "guid-3",
		FrameNumber: 0,
		ActionType:  arc3.ActionReset,
		State:       arc3.StateNotFinished,
		FrameData:   [][][]int{{{1}}},
	}
	require.NoError(t, store.SaveFrame(ctx, frame))

	frame.State = arc3.StateWin
	frame.Caption = "resumed and won"
	require.NoError(t, store.SaveFrame(ctx, frame))

	frames, err := store.ListFrames(ctx, "guid-3")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, arc3.StateWin, frames[0].State)
	require.Equal(t, "resumed and won", frames[0].Caption)
}
