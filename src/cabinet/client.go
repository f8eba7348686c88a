// Package cabinet talks to the liquor backend on behalf of a caller: it
// resolves catalog names to backend ids and mutates the caller's cabinet.
package cabinet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is a thin HTTP client for the backend. It applies no timeout of its
// own; deadlines come from the caller's context or the supplied http.Client.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a backend client rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// ResolveID looks up the backend identifier for a catalog name. The id is
// returned as decoded (json.Number or string) so it can be echoed back unchanged.
func (c *Client) ResolveID(ctx context.Context, name string) (any, error) {
	endpoint := c.baseURL + "/api/liquors/name/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data map[string]any `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode lookup response (status %d): %w", resp.StatusCode, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("lookup response (status %d) has no data", resp.StatusCode)
	}
	id, ok := payload.Data["id"]
	if !ok || id == nil {
		return nil, errors.New("lookup response has no data.id")
	}
	return id, nil
}

// AddToCabinet posts the id to the caller's cabinet and returns the decoded
// response body whatever the status code.
func (c *Client) AddToCabinet(ctx context.Context, token string, id any) (any, error) {
	body, err := json.Marshal(map[string]any{"liquorId": id})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user-liquors/cabinet", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	authorize(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeBody(resp.Body)
}

// RemoveReply is the raw outcome of a cabinet delete.
type RemoveReply struct {
	Status int
	Body   any
	Parsed bool
}

// RemoveFromCabinet deletes the id from the caller's cabinet. Only transport
// failures are returned as errors; an unparseable body is reported through
// RemoveReply.Parsed.
func (c *Client) RemoveFromCabinet(ctx context.Context, token string, id any) (RemoveReply, error) {
	endpoint := c.baseURL + "/api/user-liquors/cabinet/" + url.PathEscape(fmt.Sprint(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return RemoveReply{}, err
	}
	authorize(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return RemoveReply{}, err
	}
	defer resp.Body.Close()

	reply := RemoveReply{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusNoContent {
		return reply, nil
	}
	if body, err := decodeBody(resp.Body); err == nil {
		reply.Body = body
		reply.Parsed = true
	}
	return reply, nil
}

func authorize(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
}

func decodeBody(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
