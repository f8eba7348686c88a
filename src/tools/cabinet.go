// Package tools holds the model-facing tools of the cabinet specialist.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
)

const (
	AddLiquorName    = "add_liquor"
	RemoveLiquorName = "remove_liquor"
)

// liquorArgs documents the arguments of the cabinet tools.
type liquorArgs struct {
	LiquorName string `json:"liquor_name" jsonschema:"required,description=Exact catalog name of the liquor"`
	JWTToken   string `json:"jwt_token,omitempty" jsonschema:"description=Caller credential from return_jwt_token. Optional since the request credential is used when omitted"`
}

var liquorSchema = mustSchema[liquorArgs]()

// mustSchema reflects T into the flat object schema shown to the model.
func mustSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	data, err := json.Marshal(reflector.Reflect(new(T)))
	if err != nil {
		panic(fmt.Sprintf("tools: reflect schema: %v", err))
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		panic(fmt.Sprintf("tools: decode schema: %v", err))
	}
	out := map[string]any{"type": "object", "properties": schema["properties"]}
	if required, ok := schema["required"]; ok {
		out["required"] = required
	}
	return out
}

// AddLiquorTool adds a catalog liquor to the caller's cabinet.
type AddLiquorTool struct {
	Service *cabinet.Service
}

func (t *AddLiquorTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        AddLiquorName,
		Description: "Adds a liquor to the user's cabinet (collection).",
		InputSchema: liquorSchema,
		Examples:    []map[string]any{{"liquor_name": "Bacardi"}},
	}
}

func (t *AddLiquorTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	action, err := buildRequest(ctx, t.Service, req)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return respond(action.Name(), t.Service.Add(ctx, action))
}

// RemoveLiquorTool removes a catalog liquor from the caller's cabinet.
type RemoveLiquorTool struct {
	Service *cabinet.Service
}

func (t *RemoveLiquorTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        RemoveLiquorName,
		Description: "Removes a liquor from the user's cabinet (collection).",
		InputSchema: liquorSchema,
		Examples:    []map[string]any{{"liquor_name": "Bacardi"}},
	}
}

func (t *RemoveLiquorTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	action, err := buildRequest(ctx, t.Service, req)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return respond(action.Name(), t.Service.Remove(ctx, action))
}

// buildRequest validates the liquor name before looking at the credential,
// so an unknown name fails without any outbound call.
func buildRequest(ctx context.Context, svc *cabinet.Service, req agent.ToolRequest) (cabinet.ActionRequest, error) {
	name, ok := req.Arguments["liquor_name"].(string)
	if !ok {
		return cabinet.ActionRequest{}, fmt.Errorf("missing 'liquor_name' argument")
	}
	token, _ := req.Arguments["jwt_token"].(string)
	token = strings.TrimSpace(token)
	if token == "" {
		token = identity.FromContext(ctx).Value()
	}
	return svc.Request(name, token)
}

func respond(name string, result any) (agent.ToolResponse, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return agent.ToolResponse{}, fmt.Errorf("encode result: %w", err)
	}
	outcome := "ok"
	m, _ := result.(map[string]any)
	failed := m["error"] != nil
	if failed {
		outcome = "error"
	}
	return agent.ToolResponse{
		Content:  string(body),
		Metadata: map[string]string{"liquor": name, "outcome": outcome},
		Failed:   failed,
	}, nil
}
