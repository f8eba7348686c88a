// Package audit keeps a per-dispatch trail of delegation outcomes. Records
// never contain the caller's credential.
package audit

import (
	"context"
	"sync"
	"time"
)

// Record describes one finished chat dispatch.
type Record struct {
	SessionID string
	Path      []string
	ToolCalls []ToolCall
	Outcome   string
	Error     string
	HasToken  bool
	// Subject is the unverified JWT subject of the caller, if any.
	Subject   string
	StartedAt time.Time
	Duration  time.Duration
}

// ToolCall mirrors a tool invocation made during the run.
type ToolCall struct {
	Agent string `json:"agent"`
	Tool  string `json:"tool"`
	Error string `json:"error,omitempty"`
}

// Recorder persists dispatch records. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// NopRecorder discards records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }

// MemoryRecorder keeps the most recent records in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	limit   int
	records []Record
}

// NewMemoryRecorder keeps at most limit records; non-positive means 100.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryRecorder{limit: limit}
}

func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if over := len(m.records) - m.limit; over > 0 {
		m.records = append(m.records[:0:0], m.records[over:]...)
	}
	return nil
}

// Records returns a copy of the retained records, oldest first.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
