package arc3

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available in this environment")
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("").WithBaseURL(srv.URL)
}

func TestToolDefinitionsIncludesFullRegistry(t *testing.T) {
	defs := ToolDefinitions()
	names := make(map[string]bool)
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{"inspect_game_state", "analyze_grid", "reset_game", "action1", "action2", "action3", "action4", "action5", "action7", "action6"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestDispatchInspectGameState(t *testing.T) {
	session := &Session{GUID: "g1", GameID: "ls20"}
	d := NewDispatcher(nil, nil, session)
	score := 3
	current := Frame{FrameData: [][][]int{{{1, 2}}}, State: StateInProgress, Score: &score, AvailableActs: []Action{Action1}}

	result, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "inspect_game_state"}, current)
	require.NoError(t, err)
	assert.Contains(t, result.Observation, "IN_PROGRESS")
}

func TestDispatchAnalyzeGridMissingCode(t *testing.T) {
	session := &Session{GUID: "g1"}
	d := NewDispatcher(nil, sandbox.NewExecutor(), session)
	current := Frame{FrameData: [][][]int{{{1}}}}

	result, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "analyze_grid", Arguments: map[string]any{}}, current)
	require.NoError(t, err)
	assert.Contains(t, result.Observation, "requires a python_code")
}

func TestDispatchAnalyzeGridRuns(t *testing.T) {
	requirePython(t)
	session := &Session{GUID: "g1"}
	d := NewDispatcher(nil, sandbox.NewExecutor(), session)
	current := Frame{FrameData: [][][]int{{{1, 1}, {2, 2}}}}

	call := provider.ToolCall{Name: "analyze_grid", Arguments: map[string]any{"python_code": "print(color_counts(current_layer))"}}
	result, err := d.Dispatch(context.Background(), call, current)
	require.NoError(t, err)
	assert.Contains(t, result.Observation, "1")
}

func TestDispatchActionRejectsDisallowed(t *testing.T) {
	session := &Session{GUID: "g1"}
	d := NewDispatcher(nil, nil, session)
	current := Frame{FrameNumber: 0, AvailableActs: []Action{Action1}}

	result, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "action3"}, current)
	require.NoError(t, err)
	assert.Contains(t, result.Observation, "not in available_actions")
	assert.Nil(t, result.Frames)
}

func TestDispatchActionSucceeds(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		frame, _ := json.Marshal([][][]int{{{1, 2}}})
		json.NewEncoder(w).Encode(map[string]any{
			"guid":              "g1",
			"frame":             json.RawMessage(frame),
			"state":             "IN_PROGRESS",
			"score":             1,
			"available_actions": []any{1, 2},
		})
	})
	session := &Session{GUID: "g1", GameID: "ls20"}
	d := NewDispatcher(client, nil, session)
	current := Frame{FrameNumber: 0, AvailableActs: []Action{Action1}}

	result, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "action1"}, current)
	require.NoError(t, err)
	require.Len(t, result.Frames, 1)
	assert.Equal(t, 1, result.Frames[0].FrameNumber)
	assert.Equal(t, Action1, result.Frames[0].ActionType)
}

func TestDispatchAction6ValidatesCoordinates(t *testing.T) {
	session := &Session{GUID: "g1"}
	d := NewDispatcher(nil, nil, session)
	current := Frame{}

	result, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "action6", Arguments: map[string]any{"x": float64(100), "y": float64(0)}}, current)
	require.NoError(t, err)
	assert.Contains(t, result.Observation, "out of bounds")
}

func TestDispatchUnknownTool(t *testing.T) {
	session := &Session{GUID: "g1"}
	d := NewDispatcher(nil, nil, session)
	_, err := d.Dispatch(context.Background(), provider.ToolCall{Name: "fly"}, Frame{})
	assert.Error(t, err)
}
