package cost

import (
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestRateForModelStripsPrefixes(t *testing.T) {
	direct := RateForModel("gpt-4o-mini")
	wrapped := RateForModel("grover-gpt-4o-mini")
	routed := RateForModel("openrouter/openai/gpt-4o-mini")

	assert.Equal(t, direct, wrapped)
	assert.Equal(t, direct, routed)
	assert.NotZero(t, direct.InputPerMTok)
}

func TestRateForModelUnknownReturnsZero(t *testing.T) {
	rate := RateForModel("some-unreleased-model-nobody-has-priced")
	assert.Zero(t, rate)
}

func TestComputeCost(t *testing.T) {
	usage := provider.TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	got := Compute("gpt-4o-mini", usage)
	assert.InDelta(t, 0.15+0.60, got, 0.0001)
}

func TestComputeCostUnknownModelIsZero(t *testing.T) {
	usage := provider.TokenUsage{InputTokens: 1000, OutputTokens: 1000}
	got := Compute("some-unreleased-model-nobody-has-priced", usage)
	assert.Zero(t, got)
}

func TestEstimateTokensNonEmpty(t *testing.T) {
	n := EstimateTokens("gpt-4o", "hello world, this is a test prompt")
	assert.Greater(t, n, 0)
}
