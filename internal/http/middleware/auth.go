package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "auth"), auth: auth}
}

// RequireAuth rejects requests without a valid bearer token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.RespondAPIError(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		if !am.attach(c, token) {
			response.RespondAPIError(c, apierr.Unauthorized("Invalid or expired token"))
			return
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd == nil || rd.UserID == uuid.Nil {
			response.RespondAPIError(c, apierr.Forbidden())
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when the token checks out and otherwise
// serves the request anonymously. The catalogue uses it so tutors can
// preview their own drafts.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			am.attach(c, token)
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, token string) bool {
	ctx, err := am.auth.SetContextFromToken(c.Request.Context(), token)
	if err != nil {
		am.log.Debug("token rejected", "path", c.Request.URL.Path, "error", err)
		return false
	}
	c.Request = c.Request.WithContext(ctx)
	return true
}

// bearerToken reads the Authorization header, falling back to ?token= for
// clients that cannot set headers (img tags, downloads).
func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.Query("token"))
}
