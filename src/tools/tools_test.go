package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/catalog"
	"github.com/Protocol-Lattice/cabinet-agent/src/identity"
)

type backend struct {
	hits     int32
	lastAuth atomic.Value
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&b.hits, 1)
	b.lastAuth.Store(r.Header.Get("Authorization"))
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/liquors/name/"):
		_, _ = w.Write([]byte(`{"data":{"id":7}}`))
	case r.Method == http.MethodPost:
		_, _ = w.Write([]byte(`{"message":"added"}`))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	}
}

func newService(t *testing.T, list *catalog.ReferenceList) (*cabinet.Service, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return cabinet.NewService(list, cabinet.NewClient(srv.URL, srv.Client())), b
}

func withToken(token string) context.Context {
	return identity.WithContext(context.Background(), identity.FromToken(token))
}

func TestAddLiquorUsesContextToken(t *testing.T) {
	svc, b := newService(t, catalog.New([]string{"Bacardi"}))
	tool := &AddLiquorTool{Service: svc}

	resp, err := tool.Invoke(withToken("abc123"), agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Bacardi"}})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if resp.Content != `{"message":"added"}` || resp.Metadata["outcome"] != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := b.lastAuth.Load(); got != "Bearer abc123" {
		t.Fatalf("expected context token forwarded, got %v", got)
	}
}

func TestExplicitTokenArgumentWins(t *testing.T) {
	svc, b := newService(t, catalog.New([]string{"Bacardi"}))
	tool := &RemoveLiquorTool{Service: svc}

	resp, err := tool.Invoke(withToken("ctx"), agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Bacardi", "jwt_token": "arg"}})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if !strings.Contains(resp.Content, `"success":true`) {
		t.Fatalf("unexpected response %s", resp.Content)
	}
	if got := b.lastAuth.Load(); got != "Bearer arg" {
		t.Fatalf("expected argument token, got %v", got)
	}
}

func TestInvalidNameFailsBeforeNetwork(t *testing.T) {
	svc, b := newService(t, catalog.New([]string{"Bacardi", "Campari"}))
	for _, tool := range []agent.Tool{&AddLiquorTool{Service: svc}, &RemoveLiquorTool{Service: svc}} {
		_, err := tool.Invoke(withToken("t"), agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Gin"}})
		var verr *catalog.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", tool.Spec().Name, err)
		}
		if !strings.Contains(err.Error(), "Bacardi, Campari") {
			t.Fatalf("error does not list valid names: %v", err)
		}
	}
	if n := atomic.LoadInt32(&b.hits); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
}

func TestDegradedCatalogRejectsEverything(t *testing.T) {
	svc, b := newService(t, catalog.Fallback())
	tool := &AddLiquorTool{Service: svc}
	for _, name := range []string{"Bacardi", catalog.Placeholder} {
		if _, err := tool.Invoke(withToken("t"), agent.ToolRequest{Arguments: map[string]any{"liquor_name": name}}); err == nil {
			t.Fatalf("degraded catalog accepted %q", name)
		}
	}
	if atomic.LoadInt32(&b.hits) != 0 {
		t.Fatalf("expected no backend calls")
	}
}

func TestMissingArgumentsAndToken(t *testing.T) {
	svc, _ := newService(t, catalog.New([]string{"Bacardi"}))
	tool := &AddLiquorTool{Service: svc}
	if _, err := tool.Invoke(withToken("t"), agent.ToolRequest{Arguments: map[string]any{}}); err == nil {
		t.Fatalf("expected missing argument error")
	}
	_, err := tool.Invoke(context.Background(), agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Bacardi"}})
	if !errors.Is(err, cabinet.ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestReturnJWTToken(t *testing.T) {
	tool := ReturnJWTTokenTool{}
	resp, err := tool.Invoke(withToken("abc123"), agent.ToolRequest{})
	if err != nil || resp.Content != "abc123" {
		t.Fatalf("unexpected %+v %v", resp, err)
	}
	if _, err := tool.Invoke(context.Background(), agent.ToolRequest{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestCabinetToolSchema(t *testing.T) {
	spec := (&AddLiquorTool{}).Spec()
	required, ok := spec.InputSchema["required"].([]any)
	if !ok || len(required) != 1 || required[0] != "liquor_name" {
		t.Fatalf("unexpected required fields %#v", spec.InputSchema["required"])
	}
	props, ok := spec.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties in %#v", spec.InputSchema)
	}
	for _, key := range []string{"liquor_name", "jwt_token"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("property %s missing", key)
		}
	}
}

func TestBackendFailureMarksResponseFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	svc := cabinet.NewService(catalog.New([]string{"Bacardi"}), cabinet.NewClient(srv.URL, nil))

	resp, err := (&AddLiquorTool{Service: svc}).Invoke(withToken("t"), agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Bacardi"}})
	if err != nil {
		t.Fatalf("backend failure must be a result, got error %v", err)
	}
	if !resp.Failed || resp.Metadata["outcome"] != "error" || !strings.Contains(resp.Content, "failed to resolve liquor id") {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEmptyBearerCredential(t *testing.T) {
	svc, b := newService(t, catalog.New([]string{"Bacardi"}))
	ctx := identity.WithContext(context.Background(), identity.FromAuthorization("Bearer "))

	resp, err := ReturnJWTTokenTool{}.Invoke(ctx, agent.ToolRequest{})
	if err != nil || resp.Content != "" {
		t.Fatalf("expected the empty credential to be returned as is, got %+v %v", resp, err)
	}
	for _, tool := range []agent.Tool{&AddLiquorTool{Service: svc}, &RemoveLiquorTool{Service: svc}} {
		_, err := tool.Invoke(ctx, agent.ToolRequest{Arguments: map[string]any{"liquor_name": "Bacardi", "jwt_token": ""}})
		if !errors.Is(err, cabinet.ErrMissingToken) {
			t.Fatalf("%s: expected missing token error, got %v", tool.Spec().Name, err)
		}
	}
	if n := atomic.LoadInt32(&b.hits); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
}
