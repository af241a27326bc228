package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/lestrrat-go/jwx/v2/jwt/openid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/cafein/cafein-server/shared/apperr"
)

const (
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	jwksRefresh   = 15 * time.Minute
)

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// OIDCProvider runs the authorization code flow against one OpenID Connect
// provider and reads the profile from the signed id_token.
type OIDCProvider struct {
	name    string
	config  oauth2.Config
	keys    jwk.Set
	issuers []string
	now     func() time.Time
}

// NewGoogleProvider keeps Google's signing keys in a background-refreshed
// cache bound to ctx.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret string) (*OIDCProvider, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(googleJWKSURL, jwk.WithMinRefreshInterval(jwksRefresh)); err != nil {
		return nil, fmt.Errorf("register google jwks: %w", err)
	}
	cfg := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}
	return newOIDCProvider("google", cfg, jwk.NewCachedSet(cache, googleJWKSURL), googleIssuers), nil
}

func newOIDCProvider(name string, cfg oauth2.Config, keys jwk.Set, issuers []string) *OIDCProvider {
	return &OIDCProvider{name: name, config: cfg, keys: keys, issuers: issuers, now: time.Now}
}

func (p *OIDCProvider) Name() string { return p.name }

func (p *OIDCProvider) AuthCodeURL(state, redirectURL string) string {
	cfg := p.config
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, redirectURL string) (Attributes, error) {
	cfg := p.config
	cfg.RedirectURL = redirectURL

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return Attributes{}, apperr.Wrap(apperr.CodeInvalidCredentials, "authorization code exchange failed", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Attributes{}, apperr.Wrap(apperr.CodeOAuthAttributeMissing, "provider response has no id_token", nil)
	}
	return p.verifyIDToken(rawIDToken)
}

func (p *OIDCProvider) verifyIDToken(raw string) (Attributes, error) {
	parsed, err := jwt.Parse([]byte(raw),
		jwt.WithKeySet(p.keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithToken(openid.New()),
		jwt.WithValidate(true),
		jwt.WithAudience(p.config.ClientID),
		jwt.WithClock(jwt.ClockFunc(p.now)),
	)
	if err != nil {
		return Attributes{}, apperr.Wrap(apperr.CodeInvalidToken, "id_token verification failed", err)
	}
	if !slices.Contains(p.issuers, parsed.Issuer()) {
		return Attributes{}, apperr.Wrap(apperr.CodeInvalidToken, "id_token issuer not trusted",
			fmt.Errorf("issuer %q", parsed.Issuer()))
	}

	idToken, ok := parsed.(openid.Token)
	if !ok {
		return Attributes{}, apperr.Internal("unexpected id_token type", errors.New("not an openid token"))
	}
	return Attributes{
		Provider: p.name,
		Email:    idToken.Email(),
		Name:     idToken.Name(),
		Picture:  idToken.Picture(),
	}, nil
}
