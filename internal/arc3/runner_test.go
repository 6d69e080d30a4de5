package arc3

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAdapter struct {
	responses []*provider.Result
	calls     int
}

func (a *scriptedAdapter) Analyze(ctx context.Context, req provider.Request) (*provider.Result, error) {
	r := a.responses[a.calls%len(a.responses)]
	a.calls++
	return r, nil
}

func (a *scriptedAdapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{Family: config.FamilyOpenAI, SupportsTools: true}
}

type fakeResolver struct{ adapter provider.Adapter }

func (f fakeResolver) Resolve(modelKey string) (provider.Adapter, config.ProviderFamily, error) {
	return f.adapter, config.FamilyOpenAI, nil
}

type memorySink struct {
	mu       sync.Mutex
	frames   []Frame
	sessions []Session
}

func (m *memorySink) SaveFrame(ctx context.Context, f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
	return nil
}

func (m *memorySink) SaveSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
	return nil
}

// newGameServer fakes the ARC-3 API: scorecard open/close always succeed,
// RESET and every ACTIONn return a fixed single settled frame so the agent
// loop's HTTP side can be exercised without a real game server.
func newGameServer(t *testing.T, state string, score int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scorecard/open":
			json.NewEncoder(w).Encode(map[string]any{"card_id": "card-1"})
		case "/scorecard/close":
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			frame, _ := json.Marshal([][][]int{{{1, 2}}})
			json.NewEncoder(w).Encode(map[string]any{
				"guid":              "guid-1",
				"frame":             json.RawMessage(frame),
				"state":             state,
				"score":             score,
				"available_actions": []any{1},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient("").WithBaseURL(srv.URL)
}

func TestRunStopsImmediatelyWhenResetYieldsTerminalFrame(t *testing.T) {
	client := newGameServer(t, "WIN", 100)
	adapter := &scriptedAdapter{responses: []*provider.Result{{ProviderResponseID: "r1"}}}
	sink := &memorySink{}
	runner := NewRunner(fakeResolver{adapter}, client, nil, sink)

	result, err := runner.Run(context.Background(), RunOptions{GameID: "ls20", Model: "gpt-5", MaxTurns: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, adapter.calls)
	assert.Equal(t, StateWin, result.Session.State)
	require.Len(t, sink.sessions, 1)
	assert.Equal(t, StateWin, sink.sessions[0].State)
}

func TestRunDispatchesToolCallsAcrossTurns(t *testing.T) {
	client := newGameServer(t, "IN_PROGRESS", 1)
	toolCallTurn := &provider.Result{
		ProviderResponseID: "r1",
		ToolCalls:          []provider.ToolCall{{Name: "action1"}},
	}
	noToolTurn := &provider.Result{ProviderResponseID: "r2"}
	adapter := &scriptedAdapter{responses: []*provider.Result{toolCallTurn, noToolTurn}}
	sink := &memorySink{}
	runner := NewRunner(fakeResolver{adapter}, client, nil, sink)

	result, err := runner.Run(context.Background(), RunOptions{GameID: "ls20", Model: "gpt-5", MaxTurns: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, adapter.calls)
	assert.Equal(t, 2, result.TurnsUsed)
	assert.NotEmpty(t, result.Frames)
	assert.NotEmpty(t, sink.frames)
}

func TestRunResumeRequiresBothGUIDAndLastFrame(t *testing.T) {
	client := newGameServer(t, "IN_PROGRESS", 0)
	adapter := &scriptedAdapter{responses: []*provider.Result{{}}}
	runner := NewRunner(fakeResolver{adapter}, client, nil, &memorySink{})

	_, err := runner.Run(context.Background(), RunOptions{GameID: "ls20", Model: "gpt-5", ExistingGameGUID: "abc"})
	assert.Error(t, err)
}

func TestRunResumesFromExistingState(t *testing.T) {
	client := newGameServer(t, "IN_PROGRESS", 2)
	adapter := &scriptedAdapter{responses: []*provider.Result{{ProviderResponseID: "r1"}}}
	sink := &memorySink{}
	runner := NewRunner(fakeResolver{adapter}, client, nil, sink)

	score := 2
	lastFrame := &Frame{FrameNumber: 3, State: StateInProgress, Score: &score, AvailableActs: []Action{Action1}}
	result, err := runner.Run(context.Background(), RunOptions{
		GameID:           "ls20",
		Model:            "gpt-5",
		MaxTurns:         1,
		ExistingGameGUID: "guid-existing",
		LastFrame:        lastFrame,
	})
	require.NoError(t, err)
	assert.Equal(t, "guid-existing", result.Session.GUID)
}
