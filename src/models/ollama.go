package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

type OllamaLLM struct {
	Client       *ollama.Client
	Model        string
	PromptPrefix string
}

// NewOllamaLLM connects to OLLAMA_HOST, defaulting to the local daemon.
func NewOllamaLLM(model, promptPrefix string, opts ...Option) (*OllamaLLM, error) {
	o := collect(opts)
	host := o.baseURL
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	return &OllamaLLM{
		Client:       ollama.NewClient(u, http.DefaultClient),
		Model:        model,
		PromptPrefix: promptPrefix,
	}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (any, error) {
	var text strings.Builder
	req := &ollama.GenerateRequest{
		Model:  o.Model,
		Prompt: withPrefix(o.PromptPrefix, prompt),
	}
	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	}); err != nil {
		return nil, err
	}
	return text.String(), nil
}
