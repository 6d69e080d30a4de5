package arc3

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFrameRank3D(t *testing.T) {
	raw, err := json.Marshal([][][]int{{{1, 2}, {3, 4}}})
	require.NoError(t, err)
	d3, d4 := detectFrameRank(raw)
	assert.Nil(t, d4)
	require.NotNil(t, d3)
	assert.Equal(t, 1, len(d3))
}

func TestDetectFrameRank4D(t *testing.T) {
	raw, err := json.Marshal([][][][]int{{{{1, 2}}}, {{{3, 4}}}})
	require.NoError(t, err)
	d3, d4 := detectFrameRank(raw)
	assert.Nil(t, d3)
	require.NotNil(t, d4)
	assert.Equal(t, 2, len(d4))
}

func TestDetectFrameRankEmpty(t *testing.T) {
	d3, d4 := detectFrameRank(nil)
	assert.Nil(t, d3)
	assert.Nil(t, d4)
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("key")
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, c, c.WithBaseURL("https://example.test"))
	assert.Equal(t, "https://example.test", c.baseURL)
}
