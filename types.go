package agent

import "context"

// Message is one entry of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSpec describes a tool's name, behaviour, and input contract.
type ToolSpec struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema map[string]any   `json:"input_schema,omitempty"`
	Examples    []map[string]any `json:"examples,omitempty"`
}

// ToolRequest carries arguments chosen by the model. The caller's identity is
// never part of the request; tools read it from the context.
type ToolRequest struct {
	SessionID string
	Arguments map[string]any
}

// ToolResponse is the textual result fed back into the transcript. Failed
// marks a result that reports a failure in its content rather than as an
// error; the runner records it as a failed call.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
	Failed   bool
}

// Tool is a capability a node may invoke.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// ToolCatalog stores the tools available to a node.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Tools() []Tool
}

// HandoffDirectory stores the nodes a node may transfer the conversation to.
type HandoffDirectory interface {
	Register(target *Agent) error
	Lookup(name string) (*Agent, bool)
	All() []*Agent
}

// Observer receives runner events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Handoff(from, to string)
	ToolCall(agent, tool string, err error)
}

type sessionKey struct{}

// WithSessionID tags ctx with a correlation id that tools receive in ToolRequest.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the id set by WithSessionID, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
