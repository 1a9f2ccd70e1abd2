package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
)

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeForbidden:          http.StatusForbidden,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeInvalidState:       http.StatusConflict,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodeInvariantViolation: http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeUpstreamFailure:    http.StatusBadGateway,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromError maps a service error onto the wire. Aggregate errors keep their
// message and validation reasons; anything else becomes an opaque 500.
func FromError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domainagg.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok || status == http.StatusInternalServerError {
		return apierr.Internal(err)
	}
	out := apierr.New(status, string(code), domainagg.MessageOf(err))
	if code == domainagg.CodeValidation {
		return out.WithDetails(domainagg.ReasonsOf(err)...)
	}
	return out
}

// Error writes err mapped through FromError.
func Error(c *gin.Context, err error) {
	RespondAPIError(c, FromError(err))
}
