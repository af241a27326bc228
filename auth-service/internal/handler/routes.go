package handler

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, auth *AuthHandler, social *OAuthHandler, limit gin.HandlerFunc) {
	api := r.Group("/api/auth", limit)
	{
		api.POST("/login", auth.Login)
		api.POST("/refresh", auth.RefreshToken)
	}

	for _, prefix := range []string{"", ownerPrefix} {
		r.GET(prefix+"/oauth2/authorization/:provider", limit, social.Authorize)
		r.GET(prefix+callbackPath+":provider", limit, social.Callback)
	}
}
