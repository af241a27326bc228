package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cafein/cafein-server/auth-service/internal/command"
	"github.com/cafein/cafein-server/auth-service/internal/oauth"
	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
)

const (
	ownerPrefix  = "/owners"
	callbackPath = "/login/oauth2/code/"
)

type OAuthLoginCommander interface {
	CompleteLogin(ctx context.Context, attrs oauth.Attributes, roles []string) (*command.LoginResult, error)
}

type StateStore interface {
	Begin(w http.ResponseWriter, r *http.Request, provider string) (string, error)
	Verify(w http.ResponseWriter, r *http.Request, provider, state string) error
}

type ProviderLookup interface {
	Get(name string) (oauth.Provider, bool)
}

// OAuthHandler drives the browser side of social login. Routes under
// /owners/ create OWNER accounts; the rest create USER accounts.
type OAuthHandler struct {
	commands     OAuthLoginCommander
	providers    ProviderLookup
	states       StateStore
	callbackBase string
	frontendURL  string
}

func NewOAuthHandler(commands OAuthLoginCommander, providers ProviderLookup, states StateStore, callbackBase, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		commands:     commands,
		providers:    providers,
		states:       states,
		callbackBase: strings.TrimRight(callbackBase, "/"),
		frontendURL:  frontendURL,
	}
}

func (h *OAuthHandler) Authorize(c *gin.Context) {
	provider, ok := h.provider(c)
	if !ok {
		return
	}
	state, err := h.states.Begin(c.Writer, c.Request, provider.Name())
	if err != nil {
		middleware.RespondWithAppError(c, apperr.Internal("failed to start OAuth2 login", err))
		return
	}
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state, h.redirectURL(c, provider.Name())))
}

// Callback completes the login and sends the browser to the front-end with
// both tokens in the query string and in response headers.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider, ok := h.provider(c)
	if !ok {
		return
	}
	if err := h.states.Verify(c.Writer, c.Request, provider.Name(), c.Query("state")); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		middleware.RespondWithAppError(c, apperr.Wrap(apperr.CodeInvalidCredentials, "OAuth2 login was not authorized", nil))
		middleware.Logger(c).Info("oauth2 provider returned error", zap.String("error", providerErr))
		return
	}

	attrs, err := provider.Exchange(c.Request.Context(), c.Query("code"), h.redirectURL(c, provider.Name()))
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	attrs.Provider = provider.Name()

	result, err := h.commands.CompleteLogin(c.Request.Context(), attrs, models.RolesForPath(c.Request.URL.Path))
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	writeTokenHeaders(c, result.Tokens)
	c.Redirect(http.StatusFound, h.frontendRedirect(result))
}

func (h *OAuthHandler) provider(c *gin.Context) (oauth.Provider, bool) {
	provider, ok := h.providers.Get(c.Param("provider"))
	if !ok {
		middleware.RespondWithAppError(c, apperr.Validation("unsupported OAuth2 provider"))
		return nil, false
	}
	return provider, true
}

// redirectURL is the callback matching the route family of the request, so
// an owner login comes back to the owner callback.
func (h *OAuthHandler) redirectURL(c *gin.Context, provider string) string {
	prefix := ""
	if strings.HasPrefix(c.Request.URL.Path, ownerPrefix+"/") {
		prefix = ownerPrefix
	}
	return h.callbackBase + prefix + callbackPath + provider
}

func (h *OAuthHandler) frontendRedirect(result *command.LoginResult) string {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		target = &url.URL{Path: h.frontendURL}
	}
	q := target.Query()
	q.Set("access_token", result.Tokens.AccessToken)
	q.Set("refresh_token", result.Tokens.RefreshToken)
	target.RawQuery = q.Encode()
	return target.String()
}
