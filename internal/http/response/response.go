package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/climatehub/collab-backend/internal/platform/apierr"
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

// RespondAPIError maps a service error onto the wire using its embedded
// status and code, defaulting to 500/internal. Storage causes are
// replaced with a generic message before serialization.
func RespondAPIError(c *gin.Context, err error) {
	c.JSON(apierr.StatusOf(err), ErrorEnvelope{
		Error: APIError{
			Message: apierr.ClientMessage(err),
			Code:    apierr.CodeOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
