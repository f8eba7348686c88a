package agent

import (
	"context"
	"fmt"
	"strings"
)

// AgentToolAdapter exposes a node as a Tool. Each invocation is an isolated
// sub-run that starts from the wrapped node with the query as its only message.
type AgentToolAdapter struct {
	agent       *Agent
	runner      *Runner
	name        string
	description string
}

// NewAgentTool wraps agent as a tool driven by runner.
func NewAgentTool(name, description string, agent *Agent, runner *Runner) Tool {
	if runner == nil {
		runner = NewRunner(DefaultMaxTurns)
	}
	return &AgentToolAdapter{
		agent:       agent,
		runner:      runner,
		name:        name,
		description: description,
	}
}

// AsTool returns a Tool representation of the node.
func (a *Agent) AsTool(name, description string, runner *Runner) Tool {
	return NewAgentTool(name, description, a, runner)
}

func (t *AgentToolAdapter) Spec() ToolSpec {
	return ToolSpec{
		Name:        t.name,
		Description: t.description,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The question or instruction for the tool.",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *AgentToolAdapter) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	query := firstString(req.Arguments, "query", "instruction", "input")
	if query == "" {
		return ToolResponse{}, fmt.Errorf("missing or invalid 'query' argument")
	}

	result, err := t.runner.Run(ctx, t.agent, []Message{{Role: "user", Content: query}})
	if err != nil {
		return ToolResponse{}, err
	}

	return ToolResponse{
		Content:  result.FinalOutput,
		Metadata: map[string]string{"agent": result.LastAgent},
	}, nil
}

func firstString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := args[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
