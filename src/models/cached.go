package models

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Protocol-Lattice/cabinet-agent/src/cache"
)

// CredentialMarkers flag prompts or completions that may carry a caller
// credential. Such completions are never cached, in memory or on disk.
var CredentialMarkers = []string{"jwt_token"}

// CachedLLM memoises completions by prompt hash, optionally persisting them.
type CachedLLM struct {
	Agent    Agent
	Cache    *cache.LRU[string]
	FilePath string
	// Bypass reports whether a prompt/completion pair must not be cached.
	Bypass func(prompt, completion string) bool

	saveMu sync.Mutex
}

func NewCachedLLM(agent Agent, size int, ttl time.Duration, filePath string) *CachedLLM {
	c := &CachedLLM{
		Agent:    agent,
		Cache:    cache.New[string](size, ttl),
		FilePath: filePath,
		Bypass:   mentionsCredential,
	}
	if filePath != "" {
		c.load()
	}
	return c
}

func (c *CachedLLM) load() {
	f, err := os.Open(c.FilePath)
	if err != nil {
		return
	}
	defer f.Close()

	var snapshot map[string]cache.Entry[string]
	if err := json.NewDecoder(f).Decode(&snapshot); err != nil {
		slog.Warn("ignoring unreadable completion cache", "path", c.FilePath, "error", err)
		return
	}
	c.Cache.Restore(snapshot)
}

// save writes to a temp file and renames it into place.
func (c *CachedLLM) save() {
	if c.FilePath == "" {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	tmp := c.FilePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		slog.Warn("completion cache not saved", "path", c.FilePath, "error", err)
		return
	}
	if err := json.NewEncoder(f).Encode(c.Cache.Snapshot()); err != nil {
		f.Close()
		os.Remove(tmp)
		return
	}
	f.Close()
	if err := os.Rename(tmp, c.FilePath); err != nil {
		slog.Warn("completion cache not saved", "path", c.FilePath, "error", err)
	}
}

// Generate checks the cache before calling the underlying agent.
func (c *CachedLLM) Generate(ctx context.Context, prompt string) (any, error) {
	key := cache.HashKey(prompt)
	if val, ok := c.Cache.Get(key); ok {
		return val, nil
	}

	res, err := c.Agent.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprint(res)
	if c.Bypass != nil && c.Bypass(prompt, text) {
		return text, nil
	}
	c.Cache.Set(key, text)
	c.save()
	return text, nil
}

func mentionsCredential(prompt, completion string) bool {
	for _, marker := range CredentialMarkers {
		if strings.Contains(prompt, marker) || strings.Contains(completion, marker) {
			return true
		}
	}
	return false
}

// TryCreateCachedLLM wraps agent when AGENT_LLM_CACHE_SIZE is a positive integer.
// AGENT_LLM_CACHE_TTL is in seconds; AGENT_LLM_CACHE_PATH enables persistence.
func TryCreateCachedLLM(agent Agent) Agent {
	size, err := strconv.Atoi(os.Getenv("AGENT_LLM_CACHE_SIZE"))
	if err != nil || size <= 0 {
		return agent
	}

	ttl := 300 * time.Second
	if sec, err := strconv.Atoi(os.Getenv("AGENT_LLM_CACHE_TTL")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}

	return NewCachedLLM(agent, size, ttl, os.Getenv("AGENT_LLM_CACHE_PATH"))
}
