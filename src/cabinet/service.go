package cabinet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Protocol-Lattice/cabinet-agent/src/catalog"
)

// ErrMissingToken is returned when a mutation is requested without a credential.
var ErrMissingToken = errors.New("jwt token is required")

// RemovedMessage accompanies a successful 204 delete.
const RemovedMessage = "liquor removed from cabinet"

// ActionRequest is a validated add or remove request. Construct it with
// NewActionRequest; the zero value is not valid.
type ActionRequest struct {
	name  string
	token string
}

// NewActionRequest validates name against refs before anything else, then
// requires a non-empty token.
func NewActionRequest(refs *catalog.ReferenceList, name, token string) (ActionRequest, error) {
	if err := refs.Validate(name); err != nil {
		return ActionRequest{}, err
	}
	if token == "" {
		return ActionRequest{}, ErrMissingToken
	}
	return ActionRequest{name: name, token: token}, nil
}

// Name returns the validated liquor name.
func (r ActionRequest) Name() string { return r.name }

// Service performs cabinet mutations. Add and Remove never return Go errors:
// every failure is folded into the structured result handed back to the model.
type Service struct {
	refs   *catalog.ReferenceList
	client *Client
}

// NewService wires a reference list to a backend client.
func NewService(refs *catalog.ReferenceList, client *Client) *Service {
	return &Service{refs: refs, client: client}
}

// References exposes the list the service validates against.
func (s *Service) References() *catalog.ReferenceList { return s.refs }

// Request is a convenience wrapper around NewActionRequest.
func (s *Service) Request(name, token string) (ActionRequest, error) {
	return NewActionRequest(s.refs, name, token)
}

// Add resolves the liquor and posts it to the caller's cabinet.
func (s *Service) Add(ctx context.Context, req ActionRequest) any {
	id, failure := s.resolve(ctx, req)
	if failure != nil {
		return failure
	}
	body, err := s.client.AddToCabinet(ctx, req.token, id)
	if err != nil {
		slog.Warn("cabinet add failed", "liquor", req.name, "error", err)
		return errorResult("failed to add liquor: %v", err)
	}
	return body
}

// Remove resolves the liquor and deletes it from the caller's cabinet.
func (s *Service) Remove(ctx context.Context, req ActionRequest) any {
	id, failure := s.resolve(ctx, req)
	if failure != nil {
		return failure
	}
	reply, err := s.client.RemoveFromCabinet(ctx, req.token, id)
	if err != nil {
		slog.Warn("cabinet remove failed", "liquor", req.name, "error", err)
		return errorResult("failed to remove liquor: %v", err)
	}
	switch {
	case reply.Status == 204:
		return map[string]any{"success": true, "message": RemovedMessage}
	case reply.Parsed:
		return reply.Body
	default:
		return map[string]any{
			"status":  reply.Status,
			"message": fmt.Sprintf("server returned status code: %d", reply.Status),
		}
	}
}

func (s *Service) resolve(ctx context.Context, req ActionRequest) (any, map[string]any) {
	id, err := s.client.ResolveID(ctx, req.name)
	if err != nil {
		slog.Warn("liquor id lookup failed", "liquor", req.name, "error", err)
		return nil, errorResult("failed to resolve liquor id: %v", err)
	}
	return id, nil
}

func errorResult(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}
