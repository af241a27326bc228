package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/apperr"
)

const ctxLogger = "logger"

type ErrorResponse struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// RespondWithAppError renders err as {"code","message"} with the status its
// code maps to. Causes of 5xx responses are logged, never rendered.
func RespondWithAppError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal server error", err)
	}

	status := appErr.HTTPStatus()
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		Logger(c).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
		message = "internal server error"
	}

	c.JSON(status, ErrorResponse{Code: appErr.Code, Message: message})
}

// Logger returns the request-scoped logger installed by LoggingMiddleware.
func Logger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if logger, ok := v.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

// DataResponse is the success envelope every JSON API response uses.
type DataResponse struct {
	Data any `json:"data"`
}

func RespondWithData(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data})
}
