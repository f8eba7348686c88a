package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingAgent struct {
	calls int32
}

func (m *countingAgent) Generate(ctx context.Context, prompt string) (any, error) {
	atomic.AddInt32(&m.calls, 1)
	return "reply to " + prompt, nil
}

func TestNewDummyLLMDefaultPrefix(t *testing.T) {
	d := NewDummyLLM("  ")
	out, err := d.Generate(context.Background(), "first\nlast line\n\n")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "Dummy response: last line" {
		t.Fatalf("unexpected output %q", out)
	}
	if out, _ := d.Generate(context.Background(), ""); out != "Dummy response: <empty prompt>" {
		t.Fatalf("unexpected empty-prompt output %q", out)
	}
}

func TestScriptedLLMReplaysInOrder(t *testing.T) {
	s := NewScriptedLLM("handoff:cabinet_agent", "ok")
	for _, want := range []string{"handoff:cabinet_agent", "ok", "done"} {
		got, _ := s.Generate(context.Background(), "p")
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if len(s.Prompts()) != 3 {
		t.Fatalf("expected 3 recorded prompts")
	}
}

func TestNewLLMProvider(t *testing.T) {
	if _, err := NewLLMProvider(context.Background(), "nope", "m", ""); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
	agent, err := NewLLMProvider(context.Background(), "dummy", "", "")
	if err != nil {
		t.Fatalf("dummy provider: %v", err)
	}
	if _, ok := agent.(*DummyLLM); !ok {
		t.Fatalf("expected DummyLLM, got %T", agent)
	}
	agent, err = NewLLMProvider(context.Background(), "openai", "gpt-4o", "", WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if o, ok := agent.(*OpenAILLM); !ok || o.Model != "gpt-4o" {
		t.Fatalf("unexpected openai agent %#v", agent)
	}
	if _, err := NewLLMProvider(context.Background(), "ollama", "llama3", "", WithBaseURL("http://127.0.0.1:11434")); err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
}

func TestCachedLLMGenerate(t *testing.T) {
	mock := &countingAgent{}
	cached := NewCachedLLM(mock, 10, time.Minute, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(ctx, "hello"); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&mock.calls); n != 1 {
		t.Fatalf("expected 1 underlying call, got %d", n)
	}
	if _, err := cached.Generate(ctx, "world"); err != nil {
		t.Fatalf("third call failed: %v", err)
	}
	if n := atomic.LoadInt32(&mock.calls); n != 2 {
		t.Fatalf("expected 2 underlying calls, got %d", n)
	}
}

func TestCachedLLMPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	first := NewCachedLLM(&countingAgent{}, 10, time.Minute, path)
	if _, err := first.Generate(context.Background(), "hello"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	mock := &countingAgent{}
	second := NewCachedLLM(mock, 10, time.Minute, path)
	out, err := second.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "reply to hello" || atomic.LoadInt32(&mock.calls) != 0 {
		t.Fatalf("expected persisted reply, got %q after %d calls", out, mock.calls)
	}
}

func TestCachedLLMSkipsCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	mock := &countingAgent{}
	cached := NewCachedLLM(mock, 10, time.Minute, path)
	ctx := context.Background()

	prompt := "Conversation:\n1. [tool] return_jwt_token => secret-bearer\n"
	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(ctx, prompt); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}
	if n := atomic.LoadInt32(&mock.calls); n != 2 {
		t.Fatalf("expected credential prompts to bypass the cache, got %d calls", n)
	}
	if cached.Cache.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d entries", cached.Cache.Len())
	}
	if data, err := os.ReadFile(path); err == nil && strings.Contains(string(data), "secret-bearer") {
		t.Fatalf("credential persisted to %s", path)
	}
}

func TestTryCreateCachedLLM(t *testing.T) {
	base := &countingAgent{}
	t.Setenv("AGENT_LLM_CACHE_SIZE", "")
	if got := TryCreateCachedLLM(base); got != Agent(base) {
		t.Fatalf("expected passthrough without cache size")
	}
	t.Setenv("AGENT_LLM_CACHE_SIZE", "5")
	t.Setenv("AGENT_LLM_CACHE_PATH", "")
	if _, ok := TryCreateCachedLLM(base).(*CachedLLM); !ok {
		t.Fatalf("expected CachedLLM when size is set")
	}
}
