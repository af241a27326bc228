package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedBackend(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/login/oauth2/code/") {
			http.Redirect(w, r, "https://front.example/loading?access_token=a", http.StatusFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Backend", name)
		w.Header().Set("X-Seen-Forwarded-For", r.Header.Get("X-Forwarded-For"))
		_, _ = io.WriteString(w, name+" "+r.Method+" "+r.URL.RequestURI()+" "+string(body))
	}))
}

func newTestGateway(t *testing.T) *gin.Engine {
	t.Helper()
	auth, member, cafe := namedBackend("auth"), namedBackend("member"), namedBackend("cafe")
	t.Cleanup(func() {
		auth.Close()
		member.Close()
		cafe.Close()
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "gateway") })
	r.NoRoute(New(Routes(auth.URL, member.URL, cafe.URL+"/"), 5*time.Second).Handle)
	return r
}

func TestGatewayRoutesByPrefix(t *testing.T) {
	r := newTestGateway(t)

	tests := []struct {
		method, path, body string
		backend            string
	}{
		{http.MethodPost, "/api/auth/login", `{"email":"a"}`, "auth"},
		{http.MethodGet, "/oauth2/authorization/google", "", "auth"},
		{http.MethodGet, "/owners/oauth2/authorization/google", "", "auth"},
		{http.MethodPost, "/api/members", `{}`, "member"},
		{http.MethodPost, "/api/owners", `{}`, "member"},
		{http.MethodGet, "/api/members/me/posts?page=2", "", "member"},
		{http.MethodGet, "/api/cafes?sort=rating&keyword=latte", "", "cafe"},
		{http.MethodDelete, "/api/posts/pst-1/bookmark", "", "cafe"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.backend, w.Header().Get("X-Backend"))
			assert.Equal(t, tt.backend+" "+tt.method+" "+tt.path+" "+tt.body, w.Body.String())
			assert.Equal(t, "192.0.2.1", w.Header().Get("X-Seen-Forwarded-For"))
		})
	}
}

func TestGatewayDoesNotFollowRedirects(t *testing.T) {
	r := newTestGateway(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/oauth2/code/google?code=x&state=y", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://front.example/loading?access_token=a", w.Header().Get("Location"))
}

func TestGatewayKeepsLocalRoutesAndRejectsUnknown(t *testing.T) {
	r := newTestGateway(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "gateway", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cafesX", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGatewayBackendDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.NoRoute(New(Routes(url, url, url), time.Second).Handle)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cafes", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMatchPrefersLongestPrefix(t *testing.T) {
	g := New([]Route{
		{Prefix: "/login", Target: "http://auth"},
		{Prefix: "/owners/login", Target: "http://owners"},
		{Prefix: "/owners", Target: "http://member"},
	}, time.Second)

	target, ok := g.Match("/owners/login/oauth2/code/google")
	require.True(t, ok)
	assert.Equal(t, "http://owners", target)

	_, ok = g.Match("/loginx")
	assert.False(t, ok)
}
