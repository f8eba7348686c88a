// Package models adapts language-model providers to a single prompt-in,
// text-out interface.
package models

import "context"

// Agent is a language model that completes a prompt.
type Agent interface {
	Generate(context.Context, string) (any, error)
}

type options struct {
	apiKey  string
	baseURL string
}

// Option customises a provider at construction time.
type Option func(*options)

// WithAPIKey overrides the provider's API key environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the provider at a non-default endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func withPrefix(prefix, prompt string) string {
	if prefix == "" {
		return prompt
	}
	return prefix + "\n\n" + prompt
}
