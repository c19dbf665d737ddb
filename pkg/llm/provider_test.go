package llm

import "testing"

func TestParseModelString(t *testing.T) {
	tests := []struct {
		model        string
		wantProvider Provider
		wantName     string
	}{
		{"kolosal/Claude Sonnet 4.5", ProviderKolosal, "Claude Sonnet 4.5"},
		{"openai/gpt-4o", ProviderOpenAI, "gpt-4o"},
		{"ollama/llama3.2", ProviderOllama, "llama3.2"},
		{"anthropic/claude-sonnet-4-20250514", ProviderAnthropic, "claude-sonnet-4-20250514"},
		{"gemini/gemini-2.0-flash", ProviderGemini, "gemini-2.0-flash"},
		{"Kolosal/some-model", ProviderKolosal, "some-model"},
		{"claude-sonnet-4-20250514", ProviderAnthropic, "claude-sonnet-4-20250514"},
		{"gpt-4o-mini", ProviderOpenAI, "gpt-4o-mini"},
		{"o1-preview", ProviderOpenAI, "o1-preview"},
		{"o3-mini", ProviderOpenAI, "o3-mini"},
		{"gemini-2.0-flash-001", ProviderGemini, "gemini-2.0-flash-001"},
		{"Claude Sonnet 4.5", ProviderKolosal, "Claude Sonnet 4.5"},
		{"unknown/model-x", ProviderKolosal, "unknown/model-x"},
		{"llama3.2", ProviderKolosal, "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, name := ParseModelString(tt.model)
			if provider != tt.wantProvider {
				t.Errorf("provider = %q, want %q", provider, tt.wantProvider)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}
