package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/token"
)

const (
	ctxUserID = "userId"
	ctxEmail  = "email"
	ctxRoles  = "roles"
)

// AccessTokenParser verifies bearer tokens. *token.Issuer implements it.
type AccessTokenParser interface {
	ParseAccess(tokenString string) (*token.Claims, error)
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(parser AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithAppError(c, apperr.Wrap(apperr.CodeInvalidToken, "Authorization header required", nil))
			c.Abort()
			return
		}

		claims, err := parseBearer(parser, authHeader)
		if err != nil {
			RespondWithAppError(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the viewer when a valid token is sent and
// lets anonymous requests through. An invalid token is still rejected.
func OptionalAuthMiddleware(parser AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, err := parseBearer(parser, authHeader)
		if err != nil {
			RespondWithAppError(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func parseBearer(parser AccessTokenParser, authHeader string) (*token.Claims, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "Invalid authorization header format", nil)
	}
	return parser.ParseAccess(parts[1])
}

func setClaims(c *gin.Context, claims *token.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Subject)
	c.Set(ctxRoles, claims.Roles)
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// ViewerID is the authenticated member id, or "" for anonymous requests.
func ViewerID(c *gin.Context) string {
	id, _ := GetUserID(c)
	return id
}

func GetRoles(c *gin.Context) []string {
	roles, _ := c.Get(ctxRoles)
	r, _ := roles.([]string)
	return r
}
