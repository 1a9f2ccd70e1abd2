package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError reports a request-level failure. err's text goes to the
// client, so pass only errors produced by binding or parsing.
func RespondError(c *gin.Context, status int, code string, err error) {
	RespondAPIError(c, apierr.Wrap(status, code, err))
}

// RespondAPIError writes err when it is an *apierr.Error and an opaque 500
// otherwise. The request is aborted either way.
func RespondAPIError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierr.Internal(err)
	}
	if apiErr.Status >= http.StatusInternalServerError {
		_ = c.Error(apiErr)
	}
	c.AbortWithStatusJSON(apiErr.Status, ErrorEnvelope{Error: APIError{
		Message: apiErr.Error(),
		Code:    apiErr.Code,
		Details: apiErr.Details,
	}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
