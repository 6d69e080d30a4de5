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

// Command arcctl runs a single-shot analysis against one puzzle file
// without starting the HTTP server, the CLI equivalent of POST
// /api/puzzle/analyze/{puzzleId}/{modelKey}.
//
// Usage:
//
//	arcctl analyze --puzzle ./data/puzzles/00576224.json --model gpt-5
//	arcctl analyze --puzzle ./data/puzzles/00576224.json --model claude-sonnet-4 --temperature 0.2
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/82deutschmark/arc-explainer/internal/analysis"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/observability"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// CLI defines arcctl's command surface.
type CLI struct {
	Analyze AnalyzeCmd `cmd:"" help:"Run a single-shot analysis against one puzzle file."`
	Config  string     `short:"c" help:"Path to config file (provider credentials)." type:"path" default:"config.yaml"`
}

// AnalyzeCmd runs the analysis pipeline once and prints the resulting
// explanation as JSON to stdout.
type AnalyzeCmd struct {
	Puzzle      string  `required:"" help:"Path to a puzzle JSON file."`
	Model       string  `required:"" help:"Model key, e.g. gpt-5, claude-sonnet-4, grover-gpt-5-nano."`
	Mode        string  `help:"Prompt mode." default:"solver"`
	Temperature float64 `help:"Sampling temperature." default:"0.2"`
	APIKey      string  `name:"api-key" help:"BYOK API key; prompted interactively if omitted and not in the environment."`
}

func (c *AnalyzeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	apiKey := c.APIKey
	family, err := config.ResolveFamily(c.Model)
	if err != nil {
		return fmt.Errorf("resolving model family: %w", err)
	}
	if apiKey == "" {
		if existing, ok := cfg.Providers[string(family)]; ok && existing.APIKey != "" {
			apiKey = existing.APIKey
		}
	}
	if apiKey == "" {
		apiKey = config.EnvKeyForFamily(family)
	}
	if apiKey == "" {
		apiKey, err = promptForAPIKey(family)
		if err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(c.Puzzle)
	if err != nil {
		return fmt.Errorf("reading puzzle file: %w", err)
	}
	var p puzzle.Puzzle
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parsing puzzle: %w", err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid puzzle: %w", err)
	}

	providerConfigs := make(map[config.ProviderFamily]config.ProviderConfig, len(cfg.Providers))
	for key, pc := range cfg.Providers {
		pc.Family = config.ProviderFamily(key)
		providerConfigs[pc.Family] = pc
	}
	if existing, ok := providerConfigs[family]; ok {
		existing.APIKey = apiKey
		providerConfigs[family] = existing
	} else {
		providerConfigs[family] = config.ProviderConfig{Family: family, APIKey: apiKey}
	}
	for key, pc := range providerConfigs {
		pc.SetDefaults()
		providerConfigs[key] = pc
	}

	registry := provider.NewRegistry(providerConfigs, (*observability.Metrics)(nil))
	orchestrator := analysis.NewOrchestrator(registry)

	exp, err := orchestrator.Analyze(context.Background(), &p, c.Model, analysis.Request{
		Mode:        prompt.Mode(c.Mode),
		Temperature: c.Temperature,
		UserAPIKey:  apiKey,
	})
	if exp == nil && err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	out, encErr := json.MarshalIndent(exp, "", "  ")
	if encErr != nil {
		return fmt.Errorf("encoding result: %w", encErr)
	}
	fmt.Println(string(out))
	return nil
}

// promptForAPIKey reads a BYOK key from the terminal without echoing it,
// the interactive fallback when neither --api-key nor the config file nor
// the conventional environment variable supplies one.
func promptForAPIKey(family config.ProviderFamily) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter API key for %s: ", family)
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	if len(keyBytes) == 0 {
		return "", fmt.Errorf("no API key provided for %s", family)
	}
	return string(keyBytes), nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Name("arcctl"), kong.Description("One-shot ARC-AGI puzzle analysis from the command line."))
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
