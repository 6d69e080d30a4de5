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

	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

func sampleExplanation() *explanation.Explanation {
	return &explanation.Explanation{
		PuzzleID:            "0a1b2c3d",
		ModelKey:             "gpt-5",
		Mode:                 prompt.ModeSolver,
		Temperature:          0.2,
		InputTokens:          100,
		OutputTokens:         50,
		TotalTokens:          150,
		PredictedOutput:      puzzle.Grid{{1, 2}, {3, 4}},
		IsPredictionCorrect:  true,
		Confidence:           80,
		PatternDescription:   "rotate 90 degrees",
		ProviderResponseID:   "resp-123",
		CreatedAt:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetExplanationRoundTrips(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	exp := sampleExplanation()
	id, err := store.SaveExplanation(ctx, exp)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.GetExplanation(ctx, id)
	require.NoError(t, err)
	require.Equal(t, exp.PuzzleID, got.PuzzleID)
	require.Equal(t, exp.ModelKey, got.ModelKey)
	require.Equal(t, exp.ProviderResponseID, got.ProviderResponseID)
	require.Equal(t, exp.PredictedOutput, got.PredictedOutput)
	require.True(t, got.IsPredictionCorrect)
}

func TestSaveExplanationDedupesOnProviderResponseID(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	exp := sampleExplanation()
	firstID, err := store.SaveExplanation(ctx, exp)
	require.NoError(t, err)

	secondID, err := store.SaveExplanation(ctx, exp)
	require.NoError(t, err)
	require.Equal(t, firstID, secondID)
}

func TestSaveExplanationAllowsMultipleEmptyResponseIDs(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	first := sampleExplanation()
	first.ProviderResponseID = ""
	firstID, err := store.SaveExplanation(ctx, first)
	require.NoError(t, err)

	second := sampleExplanation()
	second.ProviderResponseID = ""
	secondID, err := store.SaveExplanation(ctx, second)
	require.NoError(t, err)

	require.NotEqual(t, firstID, secondID)
}

func TestListForPuzzleReturnsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	older := sampleExplanation()
	older.ProviderResponseID = "resp-older"
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.SaveExplanation(ctx, older)
	require.NoError(t, err)

	newer := sampleExplanation()
	newer.ProviderResponseID = "resp-newer"
	newer.CreatedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = store.SaveExplanation(ctx, newer)
	require.NoError(t, err)

	list, err := store.ListForPuzzle(ctx, older.PuzzleID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "resp-newer", list[0].ProviderResponseID)
	require.Equal(t, "resp-older", list[1].ProviderResponseID)
}

func TestListEligibleForDiscussionFiltersByFamilyAndAge(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	recentOpenAI := sampleExplanation()
	recentOpenAI.ModelKey = "gpt-5"
	recentOpenAI.ProviderResponseID = "resp-openai-recent"
	recentOpenAI.CreatedAt = time.Now().Add(-time.Hour)
	_, err := store.SaveExplanation(ctx, recentOpenAI)
	require.NoError(t, err)

	staleOpenAI := sampleExplanation()
	staleOpenAI.ModelKey = "gpt-5"
	staleOpenAI.ProviderResponseID = "resp-openai-stale"
	staleOpenAI.CreatedAt = time.Now().Add(-60 * 24 * time.Hour)
	_, err = store.SaveExplanation(ctx, staleOpenAI)
	require.NoError(t, err)

	recentAnthropic := sampleExplanation()
	recentAnthropic.ModelKey = "claude-sonnet"
	recentAnthropic.ProviderResponseID = "resp-anthropic-recent"
	recentAnthropic.CreatedAt = time.Now().Add(-time.Hour)
	_, err = store.SaveExplanation(ctx, recentAnthropic)
	require.NoError(t, err)

	list, err := store.ListEligibleForDiscussion(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "resp-openai-recent", list[0].ProviderResponseID)
}

func TestListForModelReturnsOnlyThatModel(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	a := sampleExplanation()
	a.ModelKey = "gpt-5"
	a.ProviderResponseID = "resp-a"
	_, err := store.SaveExplanation(ctx, a)
	require.NoError(t, err)

	b := sampleExplanation()
	b.ModelKey = "claude-sonnet"
	b.ProviderResponseID = "resp-b"
	_, err = store.SaveExplanation(ctx, b)
	require.NoError(t, err)

	list, err := store.ListForModel(ctx, "gpt-5")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "gpt-5", list[0].ModelKey)
}

func TestGetExplanationRebuttingLink(t *testing.T) {
	s := newTestStore(t)
	store := s.Explanations()
	ctx := context.Background()

	parent := sampleExplanation()
	parent.ProviderResponseID = "resp-parent"
	parentID, err := store.SaveExplanation(ctx, parent)
	require.NoError(t, err)

	child := sampleExplanation()
	child.ProviderResponseID = "resp-child"
	child.RebuttingExplanationID = &parentID
	childID, err := store.SaveExplanation(ctx, child)
	require.NoError(t, err)

	got, err := store.GetExplanation(ctx, childID)
	require.NoError(t, err)
	require.NotNil(t, got.RebuttingExplanationID)
	require.Equal(t, parentID, *got.RebuttingExplanationID)
}
