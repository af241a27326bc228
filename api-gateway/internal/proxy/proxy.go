// Package proxy forwards public API traffic to the owning service by path
// prefix.
package proxy

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/middleware"
)

// Route sends every path equal to Prefix, or below it, to Target.
type Route struct {
	Prefix string
	Target string
}

// Routes returns the public routing table for the three backend services.
func Routes(authURL, memberURL, cafeURL string) []Route {
	return []Route{
		{Prefix: "/api/auth", Target: authURL},
		{Prefix: "/oauth2", Target: authURL},
		{Prefix: "/login", Target: authURL},
		{Prefix: "/owners/oauth2", Target: authURL},
		{Prefix: "/owners/login", Target: authURL},
		{Prefix: "/api/members", Target: memberURL},
		{Prefix: "/api/owners", Target: memberURL},
		{Prefix: "/api/cafes", Target: cafeURL},
		{Prefix: "/api/posts", Target: cafeURL},
	}
}

// Gateway relays requests unchanged. Redirects from a backend (the OAuth2
// flow) are handed to the client rather than followed.
type Gateway struct {
	routes []Route
	client *http.Client
}

func New(routes []Route, timeout time.Duration) *Gateway {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	for i := range sorted {
		sorted[i].Target = strings.TrimSuffix(sorted[i].Target, "/")
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &Gateway{
		routes: sorted,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Match returns the backend base URL for path, longest prefix first.
func (g *Gateway) Match(path string) (string, bool) {
	for _, r := range g.routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r.Target, true
		}
	}
	return "", false
}

// Handle is installed as the engine's NoRoute handler so the gateway's own
// /health and /metrics stay local.
func (g *Gateway) Handle(c *gin.Context) {
	target, ok := g.Match(c.Request.URL.Path)
	if !ok {
		middleware.RespondWithError(c, http.StatusNotFound, "Route not found")
		return
	}

	targetURL := target + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	var bodyBytes []byte
	if c.Request.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(c.Request.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest, "Failed to read request body")
			return
		}
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
		return
	}

	for key, values := range c.Request.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if ip, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			ip = prior + ", " + ip
		}
		req.Header.Set("X-Forwarded-For", ip)
	}
	req.Header.Set("X-Forwarded-Host", c.Request.Host)

	resp, err := g.client.Do(req)
	if err != nil {
		middleware.Logger(c).Warn("proxy request failed", zap.String("target", target), zap.Error(err))
		middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadGateway, "Failed to read response")
		return
	}

	for key, values := range resp.Header {
		if key == "Content-Length" {
			continue
		}
		c.Writer.Header().Del(key)
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
}
