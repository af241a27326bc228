package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
)

// MemberCommander defines the write-side operations used by MemberHandler.
type MemberCommander interface {
	SignUp(context.Context, cqrs.SignUpCommand) (*models.Member, error)
	UpdateMember(context.Context, cqrs.UpdateMemberCommand) (*models.MemberView, error)
	DeleteMember(context.Context, cqrs.DeleteMemberCommand) error
}

// MemberQuerier defines the read-side operations used by MemberHandler.
type MemberQuerier interface {
	GetMember(context.Context, cqrs.GetMemberQuery) (*models.MemberView, error)
	ListMemberPosts(context.Context, cqrs.ListMemberPostsQuery) (*models.PostSummaryPage, error)
}

// MemberHandler serves sign-up and the my-page endpoints. Every /me route
// acts on the authenticated member only.
type MemberHandler struct {
	commands MemberCommander
	queries  MemberQuerier
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"displayName" validate:"required,max=50"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Image       string `json:"image" validate:"omitempty,url"`
	IsPrivacy   bool   `json:"isPrivacy"`
}

type UpdateMemberRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=50"`
	Image       string `json:"image" validate:"omitempty,url"`
	IsPrivacy   bool   `json:"isPrivacy"`
}

func NewMemberHandler(commands MemberCommander, queries MemberQuerier) *MemberHandler {
	return &MemberHandler{commands: commands, queries: queries}
}

// SignUp is mounted at both /api/members and /api/owners; the route decides
// the role.
func (h *MemberHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	member, err := h.commands.SignUp(c.Request.Context(), cqrs.SignUpCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Image:       req.Image,
		IsPrivacy:   req.IsPrivacy,
		Roles:       models.RolesForPath(c.FullPath()),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Header("Location", "/api/members/me")
	middleware.RespondWithData(c, http.StatusCreated, member.ID)
}

func (h *MemberHandler) GetMe(c *gin.Context) {
	view, err := h.queries.GetMember(c.Request.Context(), cqrs.GetMemberQuery{
		MemberID: middleware.ViewerID(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, view)
}

func (h *MemberHandler) UpdateMe(c *gin.Context) {
	var req UpdateMemberRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	view, err := h.commands.UpdateMember(c.Request.Context(), cqrs.UpdateMemberCommand{
		MemberID:    middleware.ViewerID(c),
		DisplayName: req.DisplayName,
		Image:       req.Image,
		IsPrivacy:   req.IsPrivacy,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, view)
}

func (h *MemberHandler) DeleteMe(c *gin.Context) {
	err := h.commands.DeleteMember(c.Request.Context(), cqrs.DeleteMemberCommand{
		MemberID: middleware.ViewerID(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) ListMyPosts(c *gin.Context) {
	page, ok := middleware.BindPage(c)
	if !ok {
		return
	}
	result, err := h.queries.ListMemberPosts(c.Request.Context(), cqrs.ListMemberPostsQuery{
		MemberID: middleware.ViewerID(c),
		Page:     page,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, result)
}

func RegisterRoutes(r gin.IRouter, h *MemberHandler, requireAuth gin.HandlerFunc) {
	r.POST("/api/members", h.SignUp)
	r.POST("/api/owners", h.SignUp)

	me := r.Group("/api/members/me", requireAuth)
	{
		me.GET("", h.GetMe)
		me.PATCH("", h.UpdateMe)
		me.DELETE("", h.DeleteMe)
		me.GET("/posts", h.ListMyPosts)
	}
}
