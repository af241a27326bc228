package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cafein/cafein-server/shared/models"
)

type PageRequest struct {
	Page int `form:"page" validate:"omitempty,gte=1,lte=10000"`
	Size int `form:"size" validate:"omitempty,gte=1,lte=100"`
}

// BindPage reads page and size query parameters. Missing values fall back to
// the first page of the default size; out-of-range values are rejected.
func BindPage(c *gin.Context) (models.Page, bool) {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondWithValidationError(c, []ValidationError{{Field: "page", Message: "Invalid paging parameters", Type: "decode"}})
		return models.Page{}, false
	}
	if validationErrors := ValidateRequest(req); len(validationErrors) > 0 {
		RespondWithValidationError(c, validationErrors)
		return models.Page{}, false
	}
	return models.NewPage(req.Page, req.Size), true
}
