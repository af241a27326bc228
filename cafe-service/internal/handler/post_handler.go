package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
)

type PostCommander interface {
	CreatePost(context.Context, cqrs.CreatePostCommand) (*models.Post, error)
	UpdatePost(context.Context, cqrs.UpdatePostCommand) (*models.Post, error)
	DeletePost(context.Context, cqrs.DeletePostCommand) (string, error)
}

type PostQuerier interface {
	GetPost(context.Context, cqrs.GetPostQuery) (*models.PostView, error)
	ListPosts(context.Context, cqrs.ListPostsQuery) (*models.PostPage, error)
	ListCafePosts(context.Context, cqrs.ListCafePostsQuery) (*models.PostPage, error)
}

type BookmarkCommander interface {
	CreatePostBookmark(context.Context, cqrs.PostBookmarkCommand) (bool, error)
	DeletePostBookmark(context.Context, cqrs.PostBookmarkCommand) (bool, error)
}

// PostHandler serves /api/posts. Write requests accept either a JSON body or
// a multipart form whose dto part holds the JSON; the postImage part is
// accepted and discarded.
type PostHandler struct {
	commands  PostCommander
	queries   PostQuerier
	bookmarks BookmarkCommander
}

type PostRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=5000"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
}

func NewPostHandler(commands PostCommander, queries PostQuerier, bookmarks BookmarkCommander) *PostHandler {
	return &PostHandler{commands: commands, queries: queries, bookmarks: bookmarks}
}

// CreatePost is mounted at POST /api/posts/:id where id is the cafe id.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req PostRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	// TODO: persist the postImage part once an object store is wired in.
	post, err := h.commands.CreatePost(c.Request.Context(), cqrs.CreatePostCommand{
		ActorID: middleware.ViewerID(c),
		CafeID:  c.Param("id"),
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusCreated, post.ID)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req PostRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	post, err := h.commands.UpdatePost(c.Request.Context(), cqrs.UpdatePostCommand{
		ActorID: middleware.ViewerID(c),
		PostID:  c.Param("id"),
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, post.ID)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	view, err := h.queries.GetPost(c.Request.Context(), cqrs.GetPostQuery{
		PostID:   c.Param("id"),
		ViewerID: middleware.ViewerID(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, view)
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	page, ok := middleware.BindPage(c)
	if !ok {
		return
	}
	result, err := h.queries.ListPosts(c.Request.Context(), cqrs.ListPostsQuery{
		ViewerID: middleware.ViewerID(c),
		Page:     page,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, result)
}

// ListCafePosts is mounted at GET /api/cafes/:id/posts.
func (h *PostHandler) ListCafePosts(c *gin.Context) {
	page, ok := middleware.BindPage(c)
	if !ok {
		return
	}
	result, err := h.queries.ListCafePosts(c.Request.Context(), cqrs.ListCafePostsQuery{
		CafeID:   c.Param("id"),
		ViewerID: middleware.ViewerID(c),
		Page:     page,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, result)
}

// DeletePost responds with the id of the cafe the post belonged to.
func (h *PostHandler) DeletePost(c *gin.Context) {
	cafeID, err := h.commands.DeletePost(c.Request.Context(), cqrs.DeletePostCommand{
		ActorID: middleware.ViewerID(c),
		PostID:  c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, cafeID)
}

// CreateBookmark answers 201 for a new bookmark and 200 when it already
// existed.
func (h *PostHandler) CreateBookmark(c *gin.Context) {
	created, err := h.bookmarks.CreatePostBookmark(c.Request.Context(), cqrs.PostBookmarkCommand{
		ActorID: middleware.ViewerID(c),
		PostID:  c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	if created {
		c.Status(http.StatusCreated)
		return
	}
	c.Status(http.StatusOK)
}

func (h *PostHandler) DeleteBookmark(c *gin.Context) {
	_, err := h.bookmarks.DeletePostBookmark(c.Request.Context(), cqrs.PostBookmarkCommand{
		ActorID: middleware.ViewerID(c),
		PostID:  c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
