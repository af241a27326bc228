package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/middleware"
	"github.com/cafein/cafein-server/shared/models"
)

// CafeCommander defines the write-side operations used by CafeHandler.
type CafeCommander interface {
	CreateCafe(context.Context, cqrs.CreateCafeCommand) (*models.Cafe, error)
	UpdateCafe(context.Context, cqrs.UpdateCafeCommand) (*models.Cafe, error)
	DeleteCafe(context.Context, cqrs.DeleteCafeCommand) error
	AddBookmark(context.Context, cqrs.CafeBookmarkCommand) (bool, error)
	RemoveBookmark(context.Context, cqrs.CafeBookmarkCommand) (bool, error)
}

// CafeQuerier defines the read-side operations used by CafeHandler.
type CafeQuerier interface {
	GetCafe(context.Context, cqrs.GetCafeQuery) (*models.CafeDetailView, error)
	SearchCafesByFilterCondition(context.Context, cqrs.SearchCafesQuery) (*models.CafePage, error)
	SearchCafesByFilterConditionAndOrder(context.Context, cqrs.SearchCafesQuery, string) (*models.CafePage, error)
}

// CafeHandler handles cafe-related HTTP requests.
type CafeHandler struct {
	commands CafeCommander
	queries  CafeQuerier
}

type CafeRequest struct {
	Name                string `json:"name" validate:"required,max=100"`
	Address             string `json:"address" validate:"required,max=255"`
	ContactNumber       string `json:"contactNumber" validate:"max=30"`
	Notice              string `json:"notice" validate:"max=1000"`
	OpenTime            string `json:"openTime" validate:"required,datetime=15:04"`
	CloseTime           string `json:"closeTime" validate:"required,datetime=15:04"`
	IsOpenAllTime       bool   `json:"isOpenAllTime"`
	IsChargingAvailable bool   `json:"isChargingAvailable"`
	HasParking          bool   `json:"hasParking"`
	IsPetFriendly       bool   `json:"isPetFriendly"`
	HasDessert          bool   `json:"hasDessert"`
}

func (r CafeRequest) info() models.CafeInfo {
	return models.CafeInfo{
		Name:          r.Name,
		Address:       r.Address,
		ContactNumber: r.ContactNumber,
		Notice:        r.Notice,
		OpenTime:      r.OpenTime,
		CloseTime:     r.CloseTime,
		Facilities: models.Facilities{
			IsOpenAllTime:       r.IsOpenAllTime,
			IsChargingAvailable: r.IsChargingAvailable,
			HasParking:          r.HasParking,
			IsPetFriendly:       r.IsPetFriendly,
			HasDessert:          r.HasDessert,
		},
	}
}

type DeleteCafeRequest struct {
	Password string `json:"password" validate:"required"`
}

func NewCafeHandler(commands CafeCommander, queries CafeQuerier) *CafeHandler {
	return &CafeHandler{commands: commands, queries: queries}
}

func (h *CafeHandler) CreateCafe(c *gin.Context) {
	var req CafeRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	cafe, err := h.commands.CreateCafe(c.Request.Context(), cqrs.CreateCafeCommand{
		ActorID: middleware.ViewerID(c),
		Info:    req.info(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusCreated, cafe.ID)
}

func (h *CafeHandler) UpdateCafe(c *gin.Context) {
	var req CafeRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	cafe, err := h.commands.UpdateCafe(c.Request.Context(), cqrs.UpdateCafeCommand{
		ActorID: middleware.ViewerID(c),
		CafeID:  c.Param("id"),
		Info:    req.info(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, cafe.ID)
}

func (h *CafeHandler) DeleteCafe(c *gin.Context) {
	var req DeleteCafeRequest
	if !middleware.BindRequest(c, &req) {
		return
	}

	err := h.commands.DeleteCafe(c.Request.Context(), cqrs.DeleteCafeCommand{
		ActorID:  middleware.ViewerID(c),
		CafeID:   c.Param("id"),
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CafeHandler) GetCafe(c *gin.Context) {
	view, err := h.queries.GetCafe(c.Request.Context(), cqrs.GetCafeQuery{
		CafeID:   c.Param("id"),
		ViewerID: middleware.ViewerID(c),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, view)
}

// SearchCafes filters cafes by query parameters. With a sort parameter the
// result is ordered by that key; without one the default order applies.
func (h *CafeHandler) SearchCafes(c *gin.Context) {
	var filter models.FilterCondition
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.RespondWithValidationError(c, []middleware.ValidationError{{Field: "filter", Message: "Invalid filter parameters", Type: "decode"}})
		return
	}
	if validationErrors := middleware.ValidateRequest(filter); len(validationErrors) > 0 {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	page, ok := middleware.BindPage(c)
	if !ok {
		return
	}

	q := cqrs.SearchCafesQuery{ViewerID: middleware.ViewerID(c), Filter: filter, Page: page}
	var (
		result *models.CafePage
		err    error
	)
	if sortKey, ok := c.GetQuery("sort"); ok {
		result, err = h.queries.SearchCafesByFilterConditionAndOrder(c.Request.Context(), q, sortKey)
	} else {
		result, err = h.queries.SearchCafesByFilterCondition(c.Request.Context(), q)
	}
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, result)
}

func (h *CafeHandler) AddBookmark(c *gin.Context) {
	created, err := h.commands.AddBookmark(c.Request.Context(), cqrs.CafeBookmarkCommand{
		ActorID: middleware.ViewerID(c),
		CafeID:  c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.Status(status)
}

func (h *CafeHandler) RemoveBookmark(c *gin.Context) {
	_, err := h.commands.RemoveBookmark(c.Request.Context(), cqrs.CafeBookmarkCommand{
		ActorID: middleware.ViewerID(c),
		CafeID:  c.Param("id"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
