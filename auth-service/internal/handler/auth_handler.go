package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
	"github.com/cafein/cafein-server/shared/token"
)

const (
	HeaderRefresh = "Refresh"
	HeaderRole    = "Role"
	roleMember    = "member"
)

// AuthQuerier defines the read-side operations used by AuthHandler.
type AuthQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (*models.Member, *token.Pair, error)
	RefreshToken(context.Context, cqrs.RefreshTokenCommand) (string, error)
}

// AuthHandler handles login and token refresh. No command service needed.
type AuthHandler struct {
	queries AuthQuerier
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type AuthResponse struct {
	MemberID     string `json:"memberId,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func NewAuthHandler(queries AuthQuerier) *AuthHandler {
	return &AuthHandler{queries: queries}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	member, pair, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	writeTokenHeaders(c, pair)
	middleware.RespondWithData(c, http.StatusOK, AuthResponse{
		MemberID:     member.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// RefreshToken accepts the token in the JSON body or, failing that, in the
// Refresh header.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if header := c.GetHeader(HeaderRefresh); header != "" && c.Request.ContentLength <= 0 {
		req.Token = header
	} else if !middleware.BindRequest(c, &req) {
		return
	}

	access, err := h.queries.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand{
		Token: req.Token,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Header("Authorization", "Bearer "+access)
	middleware.RespondWithData(c, http.StatusOK, AuthResponse{AccessToken: access})
}

func writeTokenHeaders(c *gin.Context, pair *token.Pair) {
	c.Header("Authorization", "Bearer "+pair.AccessToken)
	c.Header(HeaderRefresh, pair.RefreshToken)
	c.Header(HeaderRole, roleMember)
}
