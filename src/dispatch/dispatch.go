// Package dispatch is the single entry point for a chat turn: it builds the
// caller's identity, runs the delegation graph, and reports the outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/audit"
	"github.com/Protocol-Lattice/cabinet-agent/src/concurrent"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
)

// ChatRequest is the inbound conversation. Model is accepted for
// compatibility but does not change which model serves the request.
type ChatRequest struct {
	Messages []agent.Message `json:"messages"`
	Model    string          `json:"model,omitempty"`
}

// Observer receives dispatch lifecycle events.
type Observer interface {
	Started()
	Finished()
	ObserveDispatch(outcome string, elapsed time.Duration)
}

// Options configure a Dispatcher.
type Options struct {
	Start    *agent.Agent
	Runner   *agent.Runner
	Pool     *concurrent.WorkerPool
	Observer Observer
	Recorder audit.Recorder
	// Timeout bounds a whole run when positive. Zero leaves the deadline to the caller.
	Timeout time.Duration
}

// Dispatcher is safe for concurrent use; it holds no per-request state.
type Dispatcher struct {
	start    *agent.Agent
	runner   *agent.Runner
	pool     *concurrent.WorkerPool
	observer Observer
	recorder audit.Recorder
	timeout  time.Duration
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Start == nil {
		return nil, errors.New("dispatcher requires a starting agent")
	}
	d := &Dispatcher{
		start:    opts.Start,
		runner:   opts.Runner,
		pool:     opts.Pool,
		observer: opts.Observer,
		recorder: opts.Recorder,
		timeout:  opts.Timeout,
	}
	if d.runner == nil {
		d.runner = agent.NewRunner(agent.DefaultMaxTurns)
	}
	if d.pool == nil {
		d.pool = concurrent.NewWorkerPool(64)
	}
	if d.recorder == nil {
		d.recorder = audit.NopRecorder{}
	}
	return d, nil
}

// Dispatch runs one chat turn to completion and returns the final text. Any
// failure that escapes the delegation graph, panics included, is returned
// as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req ChatRequest, header http.Header) (string, error) {
	id := identity.FromAuthorization(header.Get("Authorization"))
	sessionID := uuid.NewString()
	log := slog.With("session", sessionID)
	if req.Model != "" {
		log.Debug("ignoring requested model", "model", req.Model)
	}

	ctx = identity.WithContext(ctx, id)
	ctx = agent.WithSessionID(ctx, sessionID)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := time.Now()
	if d.observer != nil {
		d.observer.Started()
		defer d.observer.Finished()
	}

	var result *agent.RunResult
	err := d.pool.Do(ctx, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during delegation: %v", r)
			}
		}()
		result, err = d.runner.Run(ctx, d.start, req.Messages)
		return err
	})

	elapsed := time.Since(started)
	d.report(ctx, log, sessionID, id, started, elapsed, result, err)
	if err != nil {
		return "", err
	}
	return result.FinalOutput, nil
}

func (d *Dispatcher) report(ctx context.Context, log *slog.Logger, sessionID string, id identity.Identity, started time.Time, elapsed time.Duration, result *agent.RunResult, runErr error) {
	rec := audit.Record{
		SessionID: sessionID,
		HasToken:  id.Present(),
		Subject:   id.Subject(),
		StartedAt: started.UTC(),
		Duration:  elapsed,
		Outcome:   "success",
	}
	if result != nil {
		rec.Path = result.Path
		for _, call := range result.ToolCalls {
			rec.ToolCalls = append(rec.ToolCalls, audit.ToolCall{Agent: call.Agent, Tool: call.Tool, Error: call.Error})
		}
	}
	if runErr != nil {
		rec.Outcome = "error"
		rec.Error = runErr.Error()
		log.Error("chat dispatch failed", "error", runErr, "elapsed", elapsed)
	} else {
		log.Info("chat dispatch finished", "path", rec.Path, "tool_calls", len(rec.ToolCalls), "elapsed", elapsed)
	}

	if d.observer != nil {
		d.observer.ObserveDispatch(rec.Outcome, elapsed)
	}
	// The request context may already be cancelled; the trail should still be written.
	if err := d.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("audit record dropped", "error", err)
	}
}
