package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DummyLLM answers offline by echoing the last non-empty prompt line.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) Generate(_ context.Context, prompt string) (any, error) {
	lines := strings.Split(prompt, "\n")
	last := "<empty prompt>"
	for i := len(lines) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(lines[i]); candidate != "" {
			last = candidate
			break
		}
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}

// ScriptedLLM replays a fixed sequence of replies, then repeats Fallback.
// It lets a delegation run be driven deterministically without a provider.
type ScriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	prompts  []string
	Fallback string
}

func NewScriptedLLM(replies ...string) *ScriptedLLM {
	return &ScriptedLLM{replies: replies, Fallback: "done"}
}

func (s *ScriptedLLM) Generate(_ context.Context, prompt string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return s.Fallback, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// Prompts returns every prompt seen so far.
func (s *ScriptedLLM) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

var (
	_ Agent = (*DummyLLM)(nil)
	_ Agent = (*ScriptedLLM)(nil)
	_ Agent = (*OpenAILLM)(nil)
	_ Agent = (*AnthropicLLM)(nil)
	_ Agent = (*GeminiLLM)(nil)
	_ Agent = (*OllamaLLM)(nil)
)
