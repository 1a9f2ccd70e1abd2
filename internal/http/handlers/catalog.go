package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

// CatalogHandler is the public, approved-only view of courses.
type CatalogHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewCatalogHandler(log *logger.Logger, courses services.CourseService) *CatalogHandler {
	return &CatalogHandler{
		log:     log.With("handler", "CatalogHandler"),
		courses: courses,
	}
}

// GET /courses
func (h *CatalogHandler) List(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	page, err := h.courses.ListApproved(c.Request.Context(), q.request())
	if err != nil {
		h.fail(c, "List", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// GET /courses/search?title=...
func (h *CatalogHandler) Search(c *gin.Context) {
	var q struct {
		pageQuery
		Title string `form:"title"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	page, err := h.courses.SearchByTitle(c.Request.Context(), strings.TrimSpace(q.Title), q.request())
	if err != nil {
		h.fail(c, "Search", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// GET /courses/:id
// Anonymous callers only see APPROVED courses. A signed-in tutor or admin
// also sees what Get allows them to see.
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	course, err := h.courses.Get(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id)
	if err != nil {
		h.fail(c, "Get", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{"course": toCourseResponse(course)})
}

func (h *CatalogHandler) fail(c *gin.Context, op string, err error) {
	logFailure(h.log, c, op, err)
	response.Error(c, err)
}
