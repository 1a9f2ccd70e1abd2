package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

// AdminCourseHandler serves the moderation surface under /admin/courses.
type AdminCourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewAdminCourseHandler(log *logger.Logger, courses services.CourseService) *AdminCourseHandler {
	return &AdminCourseHandler{
		log:     log.With("handler", "AdminCourseHandler"),
		courses: courses,
	}
}

// GET /admin/courses/pending
func (h *AdminCourseHandler) ListPending(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	page, err := h.courses.ListPendingApproval(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), q.request())
	if err != nil {
		h.fail(c, "ListPending", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// GET /admin/courses?status=REJECTED
func (h *AdminCourseHandler) ListByStatus(c *gin.Context) {
	var q struct {
		pageQuery
		Status string `form:"status" binding:"required,course_status"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if !services.IdentityFromContext(c.Request.Context()).IsAdmin() {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	status, _ := courses.ParseStatus(q.Status)
	page, err := h.courses.ListByStatus(c.Request.Context(), status, q.request())
	if err != nil {
		h.fail(c, "ListByStatus", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// GET /admin/tutors/:id/courses
func (h *AdminCourseHandler) ListByTutor(c *gin.Context) {
	tutorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_tutor_id", err)
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if !services.IdentityFromContext(c.Request.Context()).IsAdmin() {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	page, err := h.courses.ListByTutor(c.Request.Context(), tutorID, q.request())
	if err != nil {
		h.fail(c, "ListByTutor", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// POST /admin/courses/:id/decision
// body: { "decision": "APPROVED" | "REJECTED", "reason": "..." }
func (h *AdminCourseHandler) Decide(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	decision, _ := courses.ParseStatus(req.Decision)
	course, err := h.courses.DecideApproval(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, decision, strings.TrimSpace(req.Reason))
	if err != nil {
		h.fail(c, "Decide", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{"course": toCourseResponse(course)})
}

// DELETE /admin/courses/:id
func (h *AdminCourseHandler) Delete(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, nil); err != nil {
		h.fail(c, "Delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminCourseHandler) fail(c *gin.Context, op string, err error) {
	logFailure(h.log, c, op, err)
	response.Error(c, err)
}
