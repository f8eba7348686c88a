package models

import (
	"context"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM implements Agent on the Messages API.
type AnthropicLLM struct {
	Client       *anthropic.Client
	Model        string
	MaxTokens    int
	PromptPrefix string
}

// NewAnthropicLLM constructs a client. The key defaults to ANTHROPIC_API_KEY.
func NewAnthropicLLM(model, promptPrefix string, opts ...Option) *AnthropicLLM {
	o := collect(opts)
	if o.apiKey == "" {
		o.apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	reqOpts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(o.apiKey)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, anthropicopt.WithBaseURL(o.baseURL))
	}
	cl := anthropic.NewClient(reqOpts...)
	return &AnthropicLLM{
		Client:       &cl,
		Model:        model,
		MaxTokens:    1024,
		PromptPrefix: promptPrefix,
	}
}

// Generate performs a single-turn completion and returns concatenated text.
func (a *AnthropicLLM) Generate(ctx context.Context, prompt string) (any, error) {
	msg, err := a.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(withPrefix(a.PromptPrefix, prompt))),
		},
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
