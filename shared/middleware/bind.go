package middleware

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
)

// DTOFormField is the multipart part that carries the JSON body when a
// client uploads a file alongside it.
const DTOFormField = "dto"

// BindRequest decodes the request body into obj and validates it. Multipart
// requests are read from the dto part. On failure the 400 response has been
// written and false is returned.
func BindRequest(c *gin.Context, obj any) bool {
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		err = bindMultipartDTO(c, obj)
	} else {
		err = c.ShouldBindJSON(obj)
	}
	if err != nil {
		RespondWithValidationError(c, []ValidationError{{
			Field:   "body",
			Message: "Malformed request body",
			Type:    "decode",
		}})
		return false
	}

	if validationErrors := ValidateRequest(obj); len(validationErrors) > 0 {
		RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func bindMultipartDTO(c *gin.Context, obj any) error {
	form, err := c.MultipartForm()
	if err != nil {
		return err
	}
	if values := form.Value[DTOFormField]; len(values) > 0 {
		return json.Unmarshal([]byte(values[0]), obj)
	}
	// Some clients send the dto part as a file with application/json type.
	files := form.File[DTOFormField]
	if len(files) == 0 {
		return errMissingDTO
	}
	f, err := files[0].Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(obj)
}

type bindError string

func (e bindError) Error() string { return string(e) }

const errMissingDTO = bindError("multipart request has no dto part")
