package explanation

import "testing"

func TestSameProviderChain(t *testing.T) {
	t.Run("no prior chain always allowed", func(t *testing.T) {
		parent := &Explanation{ModelKey: "gpt-5"}
		child := &Explanation{ModelKey: "claude-3-5-sonnet"}
		if !SameProviderChain(parent, child) {
			t.Fatal("expected no-op when parent has no providerResponseId")
		}
	})

	t.Run("same family allowed", func(t *testing.T) {
		parent := &Explanation{ModelKey: "gpt-5", ProviderResponseID: "resp_1"}
		child := &Explanation{ModelKey: "gpt-4.1"}
		if !SameProviderChain(parent, child) {
			t.Fatal("expected same-family continuation to be allowed")
		}
	})

	t.Run("mismatched family rejected", func(t *testing.T) {
		parent := &Explanation{ModelKey: "gpt-5", ProviderResponseID: "resp_1"}
		child := &Explanation{ModelKey: "claude-3-5-sonnet"}
		if SameProviderChain(parent, child) {
			t.Fatal("expected cross-family continuation to be rejected")
		}
	})
}
