package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cafein/cafein-server/shared/apperr"
)

var validate = newValidator()

// newValidator reports fields under their wire names: the json tag for
// bodies, the form tag for query structs.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Code    apperr.Code       `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

// ValidateRequest runs the validate tags on obj. Nil means valid.
func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	details := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url":
		return "Value must be a URL"
	case "min", "max":
		if fe.Kind() == reflect.String {
			return "Length must be " + boundWord(fe.Tag()) + " " + fe.Param() + " characters"
		}
		return "Value must be " + boundWord(fe.Tag()) + " " + fe.Param()
	case "gte", "lte":
		return "Value must be " + boundWord(fe.Tag()) + " " + fe.Param()
	case "datetime":
		return "Value must match the format " + fe.Param()
	default:
		return "Invalid value"
	}
}

func boundWord(tag string) string {
	if tag == "min" || tag == "gte" {
		return "at least"
	}
	return "at most"
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Code:    apperr.CodeValidationFailed,
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
