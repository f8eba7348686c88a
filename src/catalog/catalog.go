// Package catalog loads the reference list of liquor names that every cabinet
// mutation is validated against.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultURL is the public catalog used when no override is configured.
const DefaultURL = "https://drink1.deren.life"

// Placeholder is the sole entry of a list that failed to load.
const Placeholder = "liquor list unavailable"

const listPath = "/api/liquors/"

// ReferenceList is the set of accepted liquor names. It is never mutated after
// construction and may be shared by concurrent requests without locking.
type ReferenceList struct {
	names    []string
	index    map[string]struct{}
	degraded bool
}

// New builds a list from names, dropping blanks and duplicates while keeping order.
func New(names []string) *ReferenceList {
	l := &ReferenceList{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := l.index[name]; dup {
			continue
		}
		l.index[name] = struct{}{}
		l.names = append(l.names, name)
	}
	return l
}

// Fallback returns the degraded list used when the catalog could not be read.
// A degraded list rejects every name, the placeholder included.
func Fallback() *ReferenceList {
	l := New([]string{Placeholder})
	l.degraded = true
	return l
}

// Degraded reports whether the list is the load-failure fallback.
func (l *ReferenceList) Degraded() bool { return l.degraded }

// Names returns a copy of the names in catalog order.
func (l *ReferenceList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Contains is a case-sensitive exact membership test.
func (l *ReferenceList) Contains(name string) bool {
	if l == nil || l.degraded {
		return false
	}
	_, ok := l.index[name]
	return ok
}

// Validate returns a *ValidationError when name is not accepted.
func (l *ReferenceList) Validate(name string) error {
	if l.Contains(name) {
		return nil
	}
	var names []string
	if l != nil {
		names = l.Names()
	}
	return &ValidationError{Name: name, Valid: names}
}

// ValidationError reports a rejected liquor name together with the names
// that would have been accepted.
type ValidationError struct {
	Name  string
	Valid []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid liquor name: %s, maybe has a different spelling or the ingredient is not in the list. The current ingredients in db are: %s",
		e.Name, strings.Join(e.Valid, ", "),
	)
}

type listResponse struct {
	Data []struct {
		Name string `json:"name"`
	} `json:"data"`
}

// Load fetches the catalog once. Any failure is logged and answered with
// Fallback, so callers always receive a usable list.
func Load(ctx context.Context, client *http.Client, baseURL string) *ReferenceList {
	list, err := fetch(ctx, client, baseURL)
	if err != nil {
		slog.Warn("catalog unavailable, running in degraded mode", "url", baseURL, "error", err)
		return Fallback()
	}
	slog.Info("catalog loaded", "names", len(list.names))
	return list
}

func fetch(ctx context.Context, client *http.Client, baseURL string) (*ReferenceList, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + listPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: unexpected status %s", endpoint, resp.Status)
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("decode catalog: missing data field")
	}

	names := make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		names = append(names, item.Name)
	}
	return New(names), nil
}
