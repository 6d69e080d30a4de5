package config

import (
	"fmt"
	"os"
	"strings"
)

// ProviderFamily identifies a distinct provider wire protocol. Two response
// ids only chain when they share a family, per spec.md's continuation
// contract.
type ProviderFamily string

const (
	FamilyOpenAI     ProviderFamily = "openai"
	FamilyGrok       ProviderFamily = "grok"
	FamilyAnthropic  ProviderFamily = "anthropic"
	FamilyGemini     ProviderFamily = "gemini"
	FamilyOpenRouter ProviderFamily = "openrouter"
	FamilyDeepSeek   ProviderFamily = "deepseek"
)

// ResolveFamily maps a model-key string to a provider family using the
// recognition rules: prefix "openrouter/" wins outright, otherwise
// substring matching against the remaining identifier.
func ResolveFamily(modelKey string) (ProviderFamily, error) {
	key := strings.TrimPrefix(modelKey, "grover-")
	if strings.HasPrefix(key, "openrouter/") {
		return FamilyOpenRouter, nil
	}
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "grok"):
		return FamilyGrok, nil
	case strings.Contains(lower, "gpt"), strings.Contains(lower, "o3"), strings.Contains(lower, "o4"):
		return FamilyOpenAI, nil
	case strings.Contains(lower, "claude"):
		return FamilyAnthropic, nil
	case strings.Contains(lower, "gemini"):
		return FamilyGemini, nil
	case strings.Contains(lower, "deepseek"):
		return FamilyDeepSeek, nil
	default:
		return "", fmt.Errorf("unrecognized model key %q", modelKey)
	}
}

// IsGroverWrapped reports whether modelKey names a Grover-wrapped base model.
func IsGroverWrapped(modelKey string) bool {
	return strings.HasPrefix(modelKey, "grover-")
}

// SupportsServerSideState reports whether family keeps reasoning state on
// the provider's side, reachable via a previous-response-id chain.
func (f ProviderFamily) SupportsServerSideState() bool {
	return f == FamilyOpenAI || f == FamilyGrok
}

// SupportsStructuredOutput reports whether family accepts a JSON schema for
// strict structured output (as opposed to prompt-level JSON instructions).
func (f ProviderFamily) SupportsStructuredOutput() bool {
	switch f {
	case FamilyOpenAI, FamilyGrok:
		return true
	default:
		return false
	}
}

// ProviderConfig configures one provider family's API key and defaults.
type ProviderConfig struct {
	Family   ProviderFamily `yaml:"family" mapstructure:"family"`
	APIKey   string         `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string         `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model    string         `yaml:"model,omitempty" mapstructure:"model"`
	Timeout  int            `yaml:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
}

// SetDefaults fills APIKey from the environment and applies family-specific
// base URLs when unset.
func (c *ProviderConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = EnvKeyForFamily(c.Family)
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
	if c.BaseURL == "" {
		switch c.Family {
		case FamilyOpenAI:
			c.BaseURL = "https://api.openai.com/v1"
		case FamilyGrok:
			c.BaseURL = "https://api.x.ai/v1"
		case FamilyAnthropic:
			c.BaseURL = "https://api.anthropic.com/v1"
		case FamilyOpenRouter:
			c.BaseURL = "https://openrouter.ai/api/v1"
		case FamilyDeepSeek:
			c.BaseURL = "https://api.deepseek.com/v1"
		}
	}
}

func (c *ProviderConfig) Validate() error {
	if c.Family != FamilyGemini && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider family %q (set env or userApiKey/BYOK)", c.Family)
	}
	return nil
}

// EnvKeyForFamily returns the conventional env var for a provider family's
// API key. Matches pkg/config/env.go's GetProviderAPIKey, extended with the
// families that teacher config never had to name.
func EnvKeyForFamily(family ProviderFamily) string {
	switch family {
	case FamilyOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case FamilyGrok:
		return os.Getenv("XAI_API_KEY")
	case FamilyAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case FamilyGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case FamilyOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	case FamilyDeepSeek:
		return os.Getenv("DEEPSEEK_API_KEY")
	default:
		return ""
	}
}

// ReasoningEffort mirrors spec.md's options.reasoningEffort enum.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// ReasoningVerbosity mirrors spec.md's options.reasoningVerbosity enum.
type ReasoningVerbosity string

const (
	ReasoningVerbosityLow    ReasoningVerbosity = "low"
	ReasoningVerbosityMedium ReasoningVerbosity = "medium"
	ReasoningVerbosityHigh   ReasoningVerbosity = "high"
)

// ReasoningSummary mirrors spec.md's options.reasoningSummary enum.
type ReasoningSummary string

const (
	ReasoningSummaryAuto     ReasoningSummary = "auto"
	ReasoningSummaryDetailed ReasoningSummary = "detailed"
	ReasoningSummaryNone     ReasoningSummary = "none"
)
