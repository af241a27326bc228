package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/cafein/cafein-server/shared/apperr"
)

const (
	stateSessionName = "cafein_oauth"
	stateKey         = "state"
	providerKey      = "provider"
	stateMaxAge      = 600
)

// StateStore keeps the anti-CSRF state between the authorization redirect
// and the callback in a signed, short-lived cookie.
type StateStore struct {
	store *sessions.CookieStore
}

func NewStateStore(secret string, secure bool) *StateStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &StateStore{store: store}
}

// Begin generates a fresh state for provider and writes it to the cookie.
func (s *StateStore) Begin(w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	session, _ := s.store.Get(r, stateSessionName)
	session.Values[stateKey] = state
	session.Values[providerKey] = provider
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("save oauth session: %w", err)
	}
	return state, nil
}

// Verify checks the callback's state against the cookie and clears it, so a
// state is accepted at most once.
func (s *StateStore) Verify(w http.ResponseWriter, r *http.Request, provider, state string) error {
	session, err := s.store.Get(r, stateSessionName)
	if err != nil {
		return apperr.Wrap(apperr.CodeOAuthStateMismatch, "OAuth2 session is invalid", err)
	}
	expected, _ := session.Values[stateKey].(string)
	expectedProvider, _ := session.Values[providerKey].(string)

	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	if expected == "" || state == "" || expected != state || expectedProvider != provider {
		return apperr.ErrOAuthStateMismatch
	}
	return nil
}
