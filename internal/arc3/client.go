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

package arc3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/httpclient"
)

const defaultBaseURL = "https://three.arcprize.org/api"

// Client talks to the remote ARC-3 game API: scorecard lifecycle, RESET,
// and the numbered actions. It reuses the provider adapters' retrying
// httpclient.Client rather than a bare http.Client, so 429/5xx from the
// game server get the same backoff-with-jitter policy spec.md §4.1
// mandates for provider calls.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
}

func NewClient(apiKey string, opts ...httpclient.Option) *Client {
	return &Client{
		http:    httpclient.New(append([]httpclient.Option{httpclient.WithMaxRetries(2), httpclient.WithBaseDelay(2 * time.Second)}, opts...)...),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// OpenScorecard opens a scorecard for a new game session, per spec.md
// §4.6's "open scorecard before first action" rule.
func (c *Client) OpenScorecard(ctx context.Context, gameID string) (string, error) {
	var resp struct {
		CardID string `json:"card_id"`
	}
	if err := c.post(ctx, "/scorecard/open", map[string]any{"game_id": gameID}, &resp); err != nil {
		return "", err
	}
	return resp.CardID, nil
}

// CloseScorecard finalizes a scorecard on WIN/GAME_OVER or clean shutdown.
func (c *Client) CloseScorecard(ctx context.Context, cardID string) error {
	return c.post(ctx, "/scorecard/close", map[string]any{"card_id": cardID}, nil)
}

// Reset starts or restarts a game, including card_id so the action counts
// toward the open scorecard.
func (c *Client) Reset(ctx context.Context, gameID, cardID string) (rawFrame, string, error) {
	var resp actionResponse
	if err := c.post(ctx, "/cmd/RESET", map[string]any{"game_id": gameID, "card_id": cardID}, &resp); err != nil {
		return rawFrame{}, "", err
	}
	return resp.toRawFrame(), resp.GUID, nil
}

// Act dispatches one non-coordinate action (ACTION1..5, ACTION7) against an
// in-progress game.
func (c *Client) Act(ctx context.Context, guid string, action Action) (rawFrame, error) {
	var resp actionResponse
	if err := c.post(ctx, "/cmd/"+string(action), map[string]any{"guid": guid}, &resp); err != nil {
		return rawFrame{}, err
	}
	return resp.toRawFrame(), nil
}

// ActCoordinate dispatches ACTION6, the sole action taking an (x,y)
// payload.
func (c *Client) ActCoordinate(ctx context.Context, guid string, p ActionParams) (rawFrame, error) {
	if err := ValidateCoordinate(p); err != nil {
		return rawFrame{}, apperrors.InputValidation("%s", err.Error())
	}
	var resp actionResponse
	if err := c.post(ctx, "/cmd/ACTION6", map[string]any{"guid": guid, "x": p.X, "y": p.Y}, &resp); err != nil {
		return rawFrame{}, err
	}
	return resp.toRawFrame(), nil
}

// actionResponse is the wire shape of one RESET/ACTIONn reply. FrameData is
// decoded generically (json.RawMessage) because its rank (3D vs 4D) varies
// by response — see detectFrameRank.
type actionResponse struct {
	GUID             string          `json:"guid"`
	FrameData        json.RawMessage `json:"frame"`
	State            string          `json:"state"`
	Score            int             `json:"score"`
	AvailableActions []any           `json:"available_actions"`
}

func (r actionResponse) toRawFrame() rawFrame {
	frame3D, frame4D := detectFrameRank(r.FrameData)
	return rawFrame{
		GUID:             r.GUID,
		FrameData3D:      frame3D,
		FrameData4D:      frame4D,
		State:            GameState(r.State),
		Score:            r.Score,
		AvailableActions: r.AvailableActions,
	}
}

// detectFrameRank unmarshals raw into whichever of the two frame_data
// shapes the ARC-3 API actually sent, per spec.md §4.6: 3D
// ([layer][h][w]) for one settled frame, 4D ([frameIdx][layer][h][w]) for
// an animation burst. It tries 4D first since a 4D array unmarshals into a
// 3D target would fail with a type error, making the probe unambiguous.
func detectFrameRank(raw json.RawMessage) (frame3D [][][]int, frame4D [][][][]int) {
	if len(raw) == 0 {
		return nil, nil
	}
	var d4 [][][][]int
	if err := json.Unmarshal(raw, &d4); err == nil {
		return nil, d4
	}
	var d3 [][][]int
	if err := json.Unmarshal(raw, &d3); err == nil {
		return d3, nil
	}
	return nil, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.ARC3API("encode request body", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.ARC3API("build request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.ARC3API(fmt.Sprintf("%s failed", path), true, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.ARC3API("read response body", true, err)
	}

	if resp.StatusCode >= 300 {
		return apperrors.ARC3API(fmt.Sprintf("%s returned HTTP %d: %s", path, resp.StatusCode, string(data)), resp.StatusCode >= 500, nil)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.ARC3API("decode response body", false, err)
	}
	return nil
}
