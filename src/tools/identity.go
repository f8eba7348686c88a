package tools

import (
	"context"
	"errors"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
)

const ReturnJWTTokenName = "return_jwt_token"

// ErrNoToken is returned when the request carried no credential.
var ErrNoToken = errors.New("no jwt token in request context")

// ReturnJWTTokenTool hands the caller's credential to the model on request.
type ReturnJWTTokenTool struct{}

func (ReturnJWTTokenTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        ReturnJWTTokenName,
		Description: "Returns the current user's JWT token.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func (ReturnJWTTokenTool) Invoke(ctx context.Context, _ agent.ToolRequest) (agent.ToolResponse, error) {
	id := identity.FromContext(ctx)
	if !id.Present() {
		return agent.ToolResponse{}, ErrNoToken
	}
	return agent.ToolResponse{Content: id.Value()}, nil
}
