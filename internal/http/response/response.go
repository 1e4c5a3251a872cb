package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error to the wire. An apierr status and
// code pass through; anything else surfaces verbatim as a 400.
func RespondServiceError(c *gin.Context, err error) {
	RespondError(c, apierr.StatusOf(err, http.StatusBadRequest), apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
