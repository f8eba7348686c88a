package models

import (
	"context"
	"fmt"
	"strings"
)

// NewLLMProvider returns the concrete Agent for provider.
func NewLLMProvider(ctx context.Context, provider, model, promptPrefix string, opts ...Option) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "":
		return NewOpenAILLM(model, promptPrefix, opts...), nil
	case "gemini", "google":
		return NewGeminiLLM(ctx, model, promptPrefix, opts...)
	case "ollama":
		return NewOllamaLLM(model, promptPrefix, opts...)
	case "anthropic", "claude":
		return NewAnthropicLLM(model, promptPrefix, opts...), nil
	case "dummy":
		return NewDummyLLM(promptPrefix), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
