package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/lestrrat-go/jwx/v2/jwt/openid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cafein/cafein-server/shared/apperr"
)

const testClientID = "cafein-client"

type testIdP struct {
	signingKey jwk.Key
	keys       jwk.Set
}

func newTestIdP(t *testing.T) *testIdP {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, "test-kid"))
	require.NoError(t, priv.Set(jwk.AlgorithmKey, jwa.RS256))

	pub, err := priv.PublicKey()
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	return &testIdP{signingKey: priv, keys: set}
}

func (idp *testIdP) idToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	tok := openid.New()
	require.NoError(t, tok.Set(jwt.IssuerKey, "https://accounts.google.com"))
	require.NoError(t, tok.Set(jwt.AudienceKey, []string{testClientID}))
	require.NoError(t, tok.Set(jwt.IssuedAtKey, time.Now()))
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	for k, v := range claims {
		require.NoError(t, tok.Set(k, v))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, idp.signingKey))
	require.NoError(t, err)
	return string(signed)
}

func newTokenServer(t *testing.T, idToken string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(idp *testIdP, tokenURL string) *OIDCProvider {
	cfg := oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://idp.example/auth", TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       []string{"openid", "email", "profile"},
	}
	return newOIDCProvider("google", cfg, idp.keys, googleIssuers)
}

func TestOIDCProvider_Exchange(t *testing.T) {
	idp := newTestIdP(t)
	raw := idp.idToken(t, map[string]any{
		openid.EmailKey:   "kim@example.com",
		openid.NameKey:    "Kim",
		openid.PictureKey: "https://img.example/kim.png",
	})
	provider := newTestProvider(idp, newTokenServer(t, raw).URL)

	attrs, err := provider.Exchange(context.Background(), "the-code", "http://localhost/login/oauth2/code/google")
	require.NoError(t, err)
	assert.Equal(t, Attributes{
		Provider: "google",
		Email:    "kim@example.com",
		Name:     "Kim",
		Picture:  "https://img.example/kim.png",
	}, attrs)
}

func TestOIDCProvider_RejectsForeignSignature(t *testing.T) {
	trusted := newTestIdP(t)
	attacker := newTestIdP(t)
	raw := attacker.idToken(t, map[string]any{openid.EmailKey: "kim@example.com", openid.NameKey: "Kim"})
	provider := newTestProvider(trusted, newTokenServer(t, raw).URL)

	_, err := provider.Exchange(context.Background(), "the-code", "http://localhost/cb")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestOIDCProvider_RejectsWrongAudience(t *testing.T) {
	idp := newTestIdP(t)
	raw := idp.idToken(t, map[string]any{
		openid.EmailKey: "kim@example.com",
		jwt.AudienceKey: []string{"someone-else"},
	})
	provider := newTestProvider(idp, newTokenServer(t, raw).URL)

	_, err := provider.Exchange(context.Background(), "the-code", "http://localhost/cb")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestOIDCProvider_AuthCodeURL(t *testing.T) {
	provider := newTestProvider(newTestIdP(t), "https://idp.example/token")
	raw := provider.AuthCodeURL("xyz", "http://localhost:8080/owners/login/oauth2/code/google")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/owners/login/oauth2/code/google", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestAttributesValidate(t *testing.T) {
	tests := []struct {
		name    string
		attrs   Attributes
		wantErr bool
	}{
		{name: "complete", attrs: Attributes{Email: "a@b.c", Name: "A"}},
		{name: "no picture is fine", attrs: Attributes{Email: "a@b.c", Name: "A", Picture: ""}},
		{name: "missing email", attrs: Attributes{Name: "A"}, wantErr: true},
		{name: "missing name", attrs: Attributes{Email: "a@b.c"}, wantErr: true},
		{name: "blank name", attrs: Attributes{Email: "a@b.c", Name: "   "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attrs.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrOAuthAttributeMissing)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStateStore_RoundTrip(t *testing.T) {
	store := NewStateStore("0123456789abcdef0123456789abcdef", false)

	w := httptest.NewRecorder()
	state, err := store.Begin(w, httptest.NewRequest(http.MethodGet, "/oauth2/authorization/google", nil), "google")
	require.NoError(t, err)
	require.NotEmpty(t, state)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	callback := func(provider, got string) error {
		r := httptest.NewRequest(http.MethodGet, "/login/oauth2/code/google", nil)
		for _, c := range cookies {
			r.AddCookie(c)
		}
		return store.Verify(httptest.NewRecorder(), r, provider, got)
	}

	assert.NoError(t, callback("google", state))
	assert.ErrorIs(t, callback("google", "forged"), apperr.ErrOAuthStateMismatch)
	assert.ErrorIs(t, callback("kakao", state), apperr.ErrOAuthStateMismatch)
}

func TestStateStore_NoCookie(t *testing.T) {
	store := NewStateStore("0123456789abcdef0123456789abcdef", false)
	r := httptest.NewRequest(http.MethodGet, "/login/oauth2/code/google?state=abc", nil)
	err := store.Verify(httptest.NewRecorder(), r, "google", "abc")
	assert.ErrorIs(t, err, apperr.ErrOAuthStateMismatch)
}
