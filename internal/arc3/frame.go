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

import "github.com/82deutschmark/arc-explainer/internal/apperrors"

// rawFrame is the shape of one ARC-3 API action/reset response, before
// frame unpacking. FrameData is either 3D ([layer][row][col], one settled
// frame) or 4D ([frameIdx][layer][row][col], an animation burst).
type rawFrame struct {
	GUID             string
	FrameData3D      [][][]int
	FrameData4D      [][][][]int
	State            GameState
	Score            int
	AvailableActions []any
}

// unpackFrames implements spec.md §4.6's "frame unpacking (critical)" rule:
// a 3D response is a single settled frame; a 4D response is N consecutive
// frames where only the last one carries the API-reported state and score.
// startNumber is the frame_number the first unpacked frame gets; subsequent
// frames number sequentially from there.
func unpackFrames(raw rawFrame, startNumber int) ([]Frame, error) {
	switch {
	case raw.FrameData4D != nil:
		return unpack4D(raw, startNumber), nil
	case raw.FrameData3D != nil:
		return []Frame{settledFrame(raw, startNumber, raw.FrameData3D)}, nil
	default:
		return nil, apperrors.ARC3API("frame response had neither 3D nor 4D frame_data", false, nil)
	}
}

func unpack4D(raw rawFrame, startNumber int) []Frame {
	total := len(raw.FrameData4D)
	frames := make([]Frame, 0, total)
	for i, layer := range raw.FrameData4D {
		isLast := i == total-1
		f := Frame{
			FrameNumber:          startNumber + i,
			FrameData:            layer,
			IsAnimation:          true,
			AnimationFrame:       i,
			AnimationTotalFrames: total,
			IsLastAnimationFrame: isLast,
		}
		if isLast {
			f.State = raw.State
			score := raw.Score
			f.Score = &score
			f.AvailableActs = NormalizeActions(raw.AvailableActions)
		} else {
			f.State = StateInProgress
			f.Score = nil
		}
		frames = append(frames, f)
	}
	return frames
}

func settledFrame(raw rawFrame, number int, layers [][][]int) Frame {
	score := raw.Score
	return Frame{
		FrameNumber:   number,
		FrameData:     layers,
		State:         raw.State,
		Score:         &score,
		AvailableActs: NormalizeActions(raw.AvailableActions),
	}
}

// pixelsChanged counts cell-level differences between two settled frames'
// top (current) layer, used to populate Frame.PixelsChanged. A nil prev
// (first frame of a session) reports 0.
func pixelsChanged(prev, cur [][][]int) int {
	if prev == nil || cur == nil || len(prev) == 0 || len(cur) == 0 {
		return 0
	}
	p, c := prev[0], cur[0]
	if len(p) != len(c) {
		return 0
	}
	changed := 0
	for r := range p {
		if r >= len(c) || len(p[r]) != len(c[r]) {
			return 0
		}
		for col := range p[r] {
			if p[r][col] != c[r][col] {
				changed++
			}
		}
	}
	return changed
}
