package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxTurns bounds model invocations per run.
const DefaultMaxTurns = 10

var (
	// ErrMaxTurns is returned when no node produced a final answer in time.
	ErrMaxTurns = errors.New("max turns exceeded")
	// ErrEmptyConversation is returned when a run starts without messages.
	ErrEmptyConversation = errors.New("conversation is empty")
	// ErrUnknownTool and ErrUnknownHandoff are wrapped by ModelBehaviorError.
	ErrUnknownTool    = errors.New("unknown tool")
	ErrUnknownHandoff = errors.New("unknown handoff target")
)

// ModelBehaviorError reports a reply the runtime could not act on, such as a
// directive naming a tool or handoff target the node does not have.
type ModelBehaviorError struct {
	Agent  string
	Reason string
	Err    error
}

func (e *ModelBehaviorError) Error() string {
	return fmt.Sprintf("agent %s: %s", e.Agent, e.Reason)
}

func (e *ModelBehaviorError) Unwrap() error { return e.Err }

// ToolCall records one tool invocation made during a run.
type ToolCall struct {
	Agent string `json:"agent"`
	Tool  string `json:"tool"`
	Error string `json:"error,omitempty"`
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	FinalOutput string
	LastAgent   string
	Path        []string
	ToolCalls   []ToolCall
}

// Runner drives a conversation through the delegation graph. A Runner holds
// no per-run state and may be shared.
type Runner struct {
	MaxTurns int
	Observer Observer
}

// NewRunner returns a runner bounded to maxTurns model invocations.
func NewRunner(maxTurns int) *Runner {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Runner{MaxTurns: maxTurns}
}

// Run starts at the given node and loops until a node answers. Tool failures
// are written into the transcript for the model to handle; only model errors,
// unusable directives, cancellation, and turn exhaustion are returned. Once
// the loop has started, the partial result is returned alongside any error.
func (r *Runner) Run(ctx context.Context, start *Agent, messages []Message) (*RunResult, error) {
	if start == nil {
		return nil, errors.New("runner requires a starting agent")
	}
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	maxTurns := r.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	transcript := make([]Message, len(messages), len(messages)+maxTurns)
	copy(transcript, messages)

	current := start
	result := &RunResult{Path: []string{current.Name()}}
	sessionID := SessionIDFromContext(ctx)

	for turn := 0; turn < maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		completion, err := current.model.Generate(ctx, current.buildPrompt(transcript))
		if err != nil {
			return result, fmt.Errorf("agent %s: generate: %w", current.Name(), err)
		}
		output := fmt.Sprint(completion)

		d, err := parseDirective(output)
		if err != nil {
			return result, &ModelBehaviorError{Agent: current.Name(), Reason: err.Error()}
		}

		switch d.kind {
		case directiveHandoff:
			target, ok := current.lookupHandoff(d.name)
			if !ok {
				return result, &ModelBehaviorError{Agent: current.Name(), Reason: ErrUnknownHandoff.Error() + ": " + d.name, Err: ErrUnknownHandoff}
			}
			if r.Observer != nil {
				r.Observer.Handoff(current.Name(), target.Name())
			}
			current = target
			result.Path = append(result.Path, current.Name())

		case directiveTool:
			tool, spec, ok := current.lookupTool(d.name)
			if !ok {
				return result, &ModelBehaviorError{Agent: current.Name(), Reason: ErrUnknownTool.Error() + ": " + d.name, Err: ErrUnknownTool}
			}
			call := ToolCall{Agent: current.Name(), Tool: spec.Name}
			response, err := tool.Invoke(ctx, ToolRequest{SessionID: sessionID, Arguments: parseToolArguments(d.args)})
			if err != nil {
				call.Error = err.Error()
				transcript = append(transcript, Message{Role: "tool", Content: fmt.Sprintf("%s => tool error: %v", spec.Name, err)})
			} else {
				content := strings.TrimSpace(response.Content)
				if response.Failed {
					call.Error = content
					err = errors.New(content)
				}
				transcript = append(transcript, Message{Role: "tool", Content: fmt.Sprintf("%s => %s", spec.Name, content)})
			}
			result.ToolCalls = append(result.ToolCalls, call)
			if r.Observer != nil {
				r.Observer.ToolCall(current.Name(), spec.Name, err)
			}

		default:
			result.FinalOutput = d.args
			result.LastAgent = current.Name()
			return result, nil
		}
	}

	return result, fmt.Errorf("%w (%d) at agent %s", ErrMaxTurns, maxTurns, current.Name())
}
