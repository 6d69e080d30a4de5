package provider

import (
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	configs := map[config.ProviderFamily]config.ProviderConfig{
		config.FamilyOpenAI: {Family: config.FamilyOpenAI, APIKey: "sk-test", BaseURL: "https://api.openai.com/v1"},
		config.FamilyGrok:   {Family: config.FamilyGrok, APIKey: "xai-test", BaseURL: "https://api.x.ai/v1"},
	}
	registry := NewRegistry(configs, nil)

	t.Run("resolves known family", func(t *testing.T) {
		adapter, family, err := registry.Resolve("gpt-5")
		require.NoError(t, err)
		assert.Equal(t, config.FamilyOpenAI, family)
		assert.Equal(t, config.FamilyOpenAI, adapter.Capabilities().Family)
	})

	t.Run("caches adapter instance", func(t *testing.T) {
		a1, _, err := registry.Resolve("gpt-5-mini")
		require.NoError(t, err)
		a2, _, err := registry.Resolve("gpt-5")
		require.NoError(t, err)
		assert.Same(t, a1, a2)
	})

	t.Run("unconfigured family errors", func(t *testing.T) {
		_, _, err := registry.Resolve("claude-opus-4")
		require.Error(t, err)
	})

	t.Run("unrecognized model key errors", func(t *testing.T) {
		_, _, err := registry.Resolve("not-a-real-model")
		require.Error(t, err)
	})

	t.Run("grover prefix resolves to wrapped family", func(t *testing.T) {
		_, family, err := registry.Resolve("grover-gpt-5")
		require.NoError(t, err)
		assert.Equal(t, config.FamilyOpenAI, family)
	})
}

func TestCheckContinuation(t *testing.T) {
	t.Run("matching families pass", func(t *testing.T) {
		assert.NoError(t, CheckContinuation(config.FamilyOpenAI, config.FamilyOpenAI))
	})

	t.Run("empty chain family passes (fresh chain)", func(t *testing.T) {
		assert.NoError(t, CheckContinuation("", config.FamilyOpenAI))
	})

	t.Run("mismatched families fail with ProviderMismatch", func(t *testing.T) {
		err := CheckContinuation(config.FamilyOpenAI, config.FamilyAnthropic)
		require.Error(t, err)
		var ae *apperrors.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, apperrors.KindProviderMismatch, ae.Kind)
	})
}
