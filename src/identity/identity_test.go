package identity

import (
	"context"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func TestFromAuthorization(t *testing.T) {
	cases := []struct {
		header  string
		present bool
		want    string
	}{
		{"Bearer abc.def", true, "abc.def"},
		{"Bearer ", true, ""},
		{"", false, ""},
		{"Basic dXNlcg==", false, ""},
		{"bearer abc", false, ""},
	}
	for _, tc := range cases {
		id := FromAuthorization(tc.header)
		if id.Present() != tc.present {
			t.Fatalf("header %q: expected present=%v", tc.header, tc.present)
		}
		if id.Value() != tc.want {
			t.Fatalf("header %q: expected %q, got %q", tc.header, tc.want, id.Value())
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), FromToken("tok"))
	if got := FromContext(ctx).Value(); got != "tok" {
		t.Fatalf("expected tok, got %q", got)
	}
	if FromContext(context.Background()).Present() {
		t.Fatalf("expected no identity on bare context")
	}
}

func TestContextIsolation(t *testing.T) {
	a := WithContext(context.Background(), FromToken("a"))
	b := WithContext(context.Background(), FromToken("b"))
	if FromContext(a).Value() != "a" || FromContext(b).Value() != "b" {
		t.Fatalf("identities leaked across contexts")
	}
}

func TestSubject(t *testing.T) {
	tok := jwt.New()
	if err := tok.Set(jwt.SubjectKey, "user-7"); err != nil {
		t.Fatalf("set subject: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("backend-secret")))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if got := FromToken(string(signed)).Subject(); got != "user-7" {
		t.Fatalf("expected subject user-7, got %q", got)
	}
	for _, id := range []Identity{{}, FromToken("abc123"), FromToken("a.b.c")} {
		if got := id.Subject(); got != "" {
			t.Fatalf("token %q: expected no subject, got %q", id.Value(), got)
		}
	}
}
