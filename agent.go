// Package agent is a small prompt-driven delegation runtime. A node (Agent)
// owns instructions, a language model, tools, and handoff targets; a Runner
// drives a conversation through nodes until one produces a final answer.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/cabinet-agent/src/models"
)

const (
	toolPrefix    = "tool:"
	handoffPrefix = "handoff:"
)

// Agent is a node of the delegation graph. Nodes are built once at startup
// and are read-only afterwards, so one node may serve concurrent runs.
type Agent struct {
	name               string
	handoffDescription string
	instructions       string
	model              models.Agent

	tools    ToolCatalog
	handoffs HandoffDirectory
}

// Options configure a new Agent.
type Options struct {
	Name               string
	HandoffDescription string
	Instructions       string
	Model              models.Agent
	Tools              []Tool
	Handoffs           []*Agent

	ToolCatalog      ToolCatalog
	HandoffDirectory HandoffDirectory
}

// New creates a node with the provided options.
func New(opts Options) (*Agent, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, errors.New("agent requires a name")
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("agent %s requires a language model", opts.Name)
	}

	tools := opts.ToolCatalog
	if tools == nil {
		tools = NewStaticToolCatalog()
	}
	for _, tool := range opts.Tools {
		if err := tools.Register(tool); err != nil {
			return nil, fmt.Errorf("agent %s: %w", opts.Name, err)
		}
	}

	handoffs := opts.HandoffDirectory
	if handoffs == nil {
		handoffs = NewStaticHandoffDirectory()
	}
	for _, target := range opts.Handoffs {
		if err := handoffs.Register(target); err != nil {
			return nil, fmt.Errorf("agent %s: %w", opts.Name, err)
		}
	}

	return &Agent{
		name:               strings.TrimSpace(opts.Name),
		handoffDescription: strings.TrimSpace(opts.HandoffDescription),
		instructions:       strings.TrimSpace(opts.Instructions),
		model:              opts.Model,
		tools:              tools,
		handoffs:           handoffs,
	}, nil
}

func (a *Agent) Name() string               { return a.name }
func (a *Agent) HandoffDescription() string { return a.handoffDescription }
func (a *Agent) Instructions() string       { return a.instructions }

// ToolSpecs returns the specifications of the node's tools.
func (a *Agent) ToolSpecs() []ToolSpec { return a.tools.Specs() }

// Handoffs returns the node's handoff targets in registration order.
func (a *Agent) Handoffs() []*Agent { return a.handoffs.All() }

func (a *Agent) lookupTool(name string) (Tool, ToolSpec, bool) {
	return a.tools.Lookup(name)
}

func (a *Agent) lookupHandoff(name string) (*Agent, bool) {
	return a.handoffs.Lookup(name)
}

// buildPrompt renders the node instructions, capabilities, and transcript.
func (a *Agent) buildPrompt(transcript []Message) string {
	var sb strings.Builder
	sb.Grow(2048)

	sb.WriteString(a.instructions)

	if tools := a.renderTools(); tools != "" {
		sb.WriteString("\n\n")
		sb.WriteString(tools)
	}
	if handoffs := a.renderHandoffs(); handoffs != "" {
		sb.WriteString("\n\n")
		sb.WriteString(handoffs)
	}

	sb.WriteString("\n\nConversation:\n")
	sb.WriteString(renderTranscript(transcript))

	sb.WriteString("\nReply with a single tool or handoff directive, or compose the final assistant reply.\n")
	return sb.String()
}

// renderTools formats the available tool specs into a prompt-friendly block.
func (a *Agent) renderTools() string {
	specs := a.ToolSpecs()
	if len(specs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range specs {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", spec.Name, spec.Description))
		if len(spec.InputSchema) > 0 {
			if schemaJSON, err := json.Marshal(spec.InputSchema); err == nil {
				sb.WriteString("  Input schema: ")
				sb.Write(schemaJSON)
				sb.WriteString("\n")
			}
		}
		for _, ex := range spec.Examples {
			if exJSON, err := json.Marshal(ex); err == nil {
				sb.WriteString("  Example: ")
				sb.Write(exJSON)
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString("Invoke a tool with: `tool:<name> <json arguments>`\n")
	return sb.String()
}

// renderHandoffs lists the nodes this node may transfer the conversation to.
func (a *Agent) renderHandoffs() string {
	targets := a.Handoffs()
	if len(targets) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Specialists you can hand off to:\n")
	for _, target := range targets {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", target.Name(), target.HandoffDescription()))
	}
	sb.WriteString("Transfer the conversation with: `handoff:<name>`\n")
	return sb.String()
}

func renderTranscript(messages []Message) string {
	if len(messages) == 0 {
		return "(empty)\n"
	}
	var sb strings.Builder
	for i, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := strings.TrimSpace(msg.Role)
		if role == "" {
			role = "user"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, role, escapePromptContent(content)))
	}
	return sb.String()
}

// escapePromptContent keeps user text from forging directives.
func escapePromptContent(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

type directiveKind int

const (
	directiveFinal directiveKind = iota
	directiveTool
	directiveHandoff
)

type directive struct {
	kind directiveKind
	name string
	args string
}

// parseDirective classifies a model reply. Anything that is not a tool or
// handoff directive is a final answer.
func parseDirective(output string) (directive, error) {
	trimmed := strings.Trim(strings.TrimSpace(output), "`")
	trimmed = strings.TrimSpace(trimmed)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, toolPrefix):
		payload := strings.TrimSpace(trimmed[len(toolPrefix):])
		if payload == "" {
			return directive{}, errors.New("tool name is missing")
		}
		name, args := splitCommand(payload)
		return directive{kind: directiveTool, name: name, args: args}, nil
	case strings.HasPrefix(lower, handoffPrefix):
		payload := strings.TrimSpace(trimmed[len(handoffPrefix):])
		if payload == "" {
			return directive{}, errors.New("handoff target is missing")
		}
		name, _ := splitCommand(payload)
		return directive{kind: directiveHandoff, name: name}, nil
	default:
		return directive{kind: directiveFinal, args: strings.TrimSpace(output)}, nil
	}
}

func splitCommand(payload string) (string, string) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ""
	}
	idx := strings.IndexAny(payload, " \t\n")
	if idx == -1 {
		return payload, ""
	}
	return payload[:idx], strings.TrimSpace(payload[idx+1:])
}

func parseToolArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload
		}
	}
	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return map[string]any{"items": arr}
		}
	}
	return map[string]any{"input": raw}
}
