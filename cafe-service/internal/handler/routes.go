package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the cafe and post APIs. requireAuth rejects
// anonymous callers; optionalAuth only identifies them.
func RegisterRoutes(r gin.IRouter, cafes *CafeHandler, posts *PostHandler, requireAuth, optionalAuth gin.HandlerFunc) {
	cafeRoutes := r.Group("/api/cafes")
	{
		cafeRoutes.GET("", optionalAuth, cafes.SearchCafes)
		cafeRoutes.POST("", requireAuth, cafes.CreateCafe)
		cafeRoutes.GET("/:id", optionalAuth, cafes.GetCafe)
		cafeRoutes.PATCH("/:id", requireAuth, cafes.UpdateCafe)
		cafeRoutes.DELETE("/:id", requireAuth, cafes.DeleteCafe)
		cafeRoutes.GET("/:id/posts", optionalAuth, posts.ListCafePosts)
		cafeRoutes.POST("/:id/bookmark", requireAuth, cafes.AddBookmark)
		cafeRoutes.DELETE("/:id/bookmark", requireAuth, cafes.RemoveBookmark)
	}

	postRoutes := r.Group("/api/posts")
	{
		postRoutes.GET("", optionalAuth, posts.ListPosts)
		postRoutes.POST("/:id", requireAuth, posts.CreatePost)
		postRoutes.GET("/:id", optionalAuth, posts.GetPost)
		postRoutes.PATCH("/:id", requireAuth, posts.UpdatePost)
		postRoutes.DELETE("/:id", requireAuth, posts.DeletePost)
		postRoutes.POST("/:id/bookmark", requireAuth, posts.CreateBookmark)
		postRoutes.DELETE("/:id/bookmark", requireAuth, posts.DeleteBookmark)
	}
}
