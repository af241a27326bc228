// Package oauth talks to OpenID Connect providers on behalf of the login
// flow: building the authorization redirect, exchanging the code and
// verifying the returned id_token.
package oauth

import (
	"context"
	"strings"

	"github.com/cafein/cafein-server/shared/apperr"
)

// Attributes are the profile claims a successful login yields.
type Attributes struct {
	Provider string
	Email    string
	Name     string
	Picture  string
}

// Validate rejects logins whose provider did not release an email or a
// display name. Picture is optional.
func (a Attributes) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return apperr.Wrap(apperr.CodeOAuthAttributeMissing,
			"OAuth2 provider did not return "+strings.Join(missing, ", "), nil)
	}
	return nil
}

type Provider interface {
	Name() string
	AuthCodeURL(state, redirectURL string) string
	Exchange(ctx context.Context, code, redirectURL string) (Attributes, error)
}

// Registry looks providers up by the name used in the route.
type Registry map[string]Provider

func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
