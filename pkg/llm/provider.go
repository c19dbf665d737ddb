package llm

import (
	"context"
	"os"
	"strings"
)

// Provider identifies a generation backend.
type Provider string

const (
	ProviderKolosal   Provider = "kolosal"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ParseModelString parses a model string into provider and model name.
//
// Supported formats:
//
//	"kolosal/Claude Sonnet 4.5"  → (kolosal, "Claude Sonnet 4.5")
//	"openai/gpt-4o"              → (openai, "gpt-4o")
//	"ollama/llama3.2"            → (ollama, "llama3.2")
//	"gemini/gemini-2.0-flash"    → (gemini, "gemini-2.0-flash")
//	"claude-sonnet-4-20250514"   → (anthropic, same)
//	"gemini-2.0-flash-001"       → (gemini, same)
//	anything else                → (kolosal, same)
func ParseModelString(model string) (Provider, string) {
	if i := strings.Index(model, "/"); i > 0 {
		prefix := strings.ToLower(model[:i])
		name := model[i+1:]
		switch prefix {
		case "kolosal":
			return ProviderKolosal, name
		case "openai":
			return ProviderOpenAI, name
		case "ollama":
			return ProviderOllama, name
		case "anthropic":
			return ProviderAnthropic, name
		case "gemini":
			return ProviderGemini, name
		}
	}

	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "claude-") {
		return ProviderAnthropic, model
	}
	if strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") {
		return ProviderOpenAI, model
	}
	if strings.HasPrefix(lower, "gemini-") {
		return ProviderGemini, model
	}

	// The production endpoint is Kolosal; unprefixed names default there.
	return ProviderKolosal, model
}

// NewClientForModel creates the appropriate client for the model string.
//
// Environment variables used:
//
//	KOLOSAL_API_KEY    — Kolosal API key
//	OPENAI_API_KEY     — OpenAI API key
//	OPENAI_BASE_URL    — custom OpenAI-compatible base URL
//	OLLAMA_HOST        — Ollama server address
//	ANTHROPIC_API_KEY  — Anthropic API key (read by the SDK)
//	GEMINI_API_KEY     — Gemini API key
func NewClientForModel(ctx context.Context, model string) (Client, string, error) {
	provider, name := ParseModelString(model)

	switch provider {
	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			return NewOpenAICompatibleClient(baseURL, apiKey), name, nil
		}
		return NewOpenAIClient(apiKey), name, nil

	case ProviderOllama:
		return NewOllamaClient(os.Getenv("OLLAMA_HOST")), name, nil

	case ProviderAnthropic:
		return NewAnthropicClient(), name, nil

	case ProviderGemini:
		client, err := NewGeminiClient(ctx, os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			return nil, "", err
		}
		return client, name, nil

	default: // ProviderKolosal
		return NewKolosalClient(os.Getenv("KOLOSAL_API_KEY")), name, nil
	}
}
