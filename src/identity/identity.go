// Package identity carries the caller's bearer credential through a single
// request without exposing it to the language model.
package identity

import (
	"context"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

const bearerPrefix = "Bearer "

// Identity is the per-request caller context. A nil Token means the request
// carried no usable credential.
type Identity struct {
	Token *string
}

// FromAuthorization extracts the credential from an Authorization header value.
// Only the exact "Bearer " prefix is honored; anything else yields an absent token.
func FromAuthorization(header string) Identity {
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}
	}
	token := header[len(bearerPrefix):]
	return Identity{Token: &token}
}

// FromToken wraps a raw token, treating the empty string as absent.
func FromToken(token string) Identity {
	if token == "" {
		return Identity{}
	}
	return Identity{Token: &token}
}

// Present reports whether a token was supplied.
func (i Identity) Present() bool { return i.Token != nil }

// Value returns the token or the empty string when absent.
func (i Identity) Value() string {
	if i.Token == nil {
		return ""
	}
	return *i.Token
}

// Subject returns the unverified "sub" claim when the token is a JWT, and the
// empty string otherwise. The backend stays the only party that verifies
// credentials; the subject is used for attribution only.
func (i Identity) Subject() string {
	if i.Token == nil || strings.Count(*i.Token, ".") != 2 {
		return ""
	}
	tok, err := jwt.Parse([]byte(*i.Token), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return ""
	}
	return tok.Subject()
}

type ctxKey struct{}

// WithContext attaches the identity to ctx.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached to ctx, or an empty identity.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}
