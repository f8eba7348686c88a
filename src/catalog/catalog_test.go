package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateAcceptsListedNames(t *testing.T) {
	list := New([]string{"Bacardi", "Campari", "Bacardi", ""})
	if got := list.Names(); len(got) != 2 {
		t.Fatalf("expected duplicates and blanks dropped, got %v", got)
	}
	for _, name := range []string{"Bacardi", "Campari"} {
		if err := list.Validate(name); err != nil {
			t.Fatalf("expected %s to validate: %v", name, err)
		}
	}
}

func TestValidateRejectsUnknownNames(t *testing.T) {
	list := New([]string{"Bacardi", "Campari"})
	for _, name := range []string{"bacardi", "Bacardi ", "Gin"} {
		err := list.Validate(name)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %q, got %v", name, err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "invalid liquor name: "+name) {
			t.Fatalf("message does not name the rejected value: %s", msg)
		}
		if !strings.Contains(msg, "Bacardi, Campari") {
			t.Fatalf("message does not enumerate valid names: %s", msg)
		}
	}
}

func TestFallbackRejectsEverything(t *testing.T) {
	list := Fallback()
	if !list.Degraded() {
		t.Fatalf("expected degraded fallback")
	}
	for _, name := range []string{"Bacardi", Placeholder, ""} {
		if err := list.Validate(name); err == nil {
			t.Fatalf("degraded list accepted %q", name)
		}
	}
}

func TestLoadParsesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/liquors/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"name":"Bacardi","id":1},{"name":"Campari","id":2}]}`))
	}))
	defer srv.Close()

	list := Load(context.Background(), srv.Client(), srv.URL+"/")
	if list.Degraded() {
		t.Fatalf("expected healthy list")
	}
	if !list.Contains("Campari") {
		t.Fatalf("expected Campari in %v", list.Names())
	}
}

func TestLoadFallsBackOnFailure(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"missing data": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items":[]}`))
		},
	}
	for name, handler := range cases {
		srv := httptest.NewServer(handler)
		list := Load(context.Background(), srv.Client(), srv.URL)
		srv.Close()
		if !list.Degraded() {
			t.Fatalf("%s: expected degraded list", name)
		}
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if list := Load(context.Background(), nil, url); !list.Degraded() {
		t.Fatalf("network failure: expected degraded list")
	}
}
