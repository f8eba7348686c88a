// Package mcpserver exposes the cabinet operations as MCP tools so editors and
// other agents can manage a cabinet without going through the chat surface.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
)

// Version is reported in the MCP handshake.
var Version = "dev"

// Tools handles the cabinet MCP tools.
type Tools struct {
	service *cabinet.Service
	token   identity.Identity
}

// NewTools binds the tools to svc. token is used when a call omits jwt_token.
func NewTools(svc *cabinet.Service, token identity.Identity) *Tools {
	return &Tools{service: svc, token: token}
}

// New creates an MCP server with the cabinet tools registered.
func New(svc *cabinet.Service, token identity.Identity) *server.MCPServer {
	s := server.NewMCPServer(
		"cabinet",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	t := NewTools(svc, token)
	s.AddTool(t.AddDefinition(), t.HandleAdd)
	s.AddTool(t.RemoveDefinition(), t.HandleRemove)
	s.AddTool(t.ListDefinition(), t.HandleList)
	return s
}

func liquorTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("liquor_name",
			mcp.Required(),
			mcp.Description("Exact catalog name of the liquor (see list_liquors)"),
		),
		mcp.WithString("jwt_token",
			mcp.Description("Bearer credential of the cabinet owner. Defaults to the server credential."),
		),
	)
}

func (t *Tools) AddDefinition() mcp.Tool {
	return liquorTool("add_liquor", "Add a liquor to the user's cabinet.")
}

func (t *Tools) RemoveDefinition() mcp.Tool {
	return liquorTool("remove_liquor", "Remove a liquor from the user's cabinet.")
}

func (t *Tools) ListDefinition() mcp.Tool {
	return mcp.NewTool("list_liquors",
		mcp.WithDescription("List the liquor names the cabinet accepts."),
		mcp.WithString("prefix",
			mcp.Description("Only return names starting with this text (case-insensitive)"),
		),
	)
}

func (t *Tools) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, errResult := t.request(req)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(t.service.Add(ctx, action))
}

func (t *Tools) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, errResult := t.request(req)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(t.service.Remove(ctx, action))
}

func (t *Tools) HandleList(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := t.service.References()
	if refs.Degraded() {
		return mcp.NewToolResultError("liquor catalog is unavailable"), nil
	}
	prefix := strings.ToLower(strings.TrimSpace(req.GetString("prefix", "")))
	names := make([]string, 0, len(refs.Names()))
	for _, name := range refs.Names() {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			names = append(names, name)
		}
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (t *Tools) request(req mcp.CallToolRequest) (cabinet.ActionRequest, *mcp.CallToolResult) {
	name := req.GetString("liquor_name", "")
	if strings.TrimSpace(name) == "" {
		return cabinet.ActionRequest{}, mcp.NewToolResultError("'liquor_name' is required")
	}
	token := strings.TrimSpace(req.GetString("jwt_token", ""))
	if token == "" {
		token = t.token.Value()
	}
	action, err := t.service.Request(name, token)
	if err != nil {
		return cabinet.ActionRequest{}, mcp.NewToolResultError(err.Error())
	}
	return action, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok && m["error"] != nil {
		return mcp.NewToolResultError(string(body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
