package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

// CourseHandler serves the tutor authoring surface under /tutor/courses.
type CourseHandler struct {
	log        *logger.Logger
	courses    services.CourseService
	thumbnails services.ThumbnailService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService, thumbnails services.ThumbnailService) *CourseHandler {
	return &CourseHandler{
		log:        log.With("handler", "CourseHandler"),
		courses:    courses,
		thumbnails: thumbnails,
	}
}

// POST /tutor/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courses.Create(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), req.toInput())
	if err != nil {
		h.fail(c, "Create", err)
		return
	}
	setETag(c, course)
	response.RespondCreated(c, gin.H{"course": toCourseResponse(course)})
}

// GET /tutor/courses
func (h *CourseHandler) ListMine(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	actor := services.IdentityFromContext(c.Request.Context())
	if err := authoring.RequireCapability("Course.ListMine", actor, authoring.ActionListOwn); err != nil {
		h.fail(c, "ListMine", err)
		return
	}
	page, err := h.courses.ListByTutor(c.Request.Context(), actor.UserID, q.request())
	if err != nil {
		h.fail(c, "ListMine", err)
		return
	}
	response.RespondOK(c, toCoursePage(page))
}

// GET /tutor/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
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

// PUT /tutor/courses/:id
// Partial update: omitted fields keep their values. Send If-Match with the
// last seen version to reject lost updates.
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	version, ok := expectedVersion(c, req.ExpectedVersion)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("If-Match must be a course version"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, req.toInput(), version)
	if err != nil {
		h.fail(c, "Update", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{"course": toCourseResponse(course)})
}

// DELETE /tutor/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	version, ok := expectedVersion(c, nil)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("If-Match must be a course version"))
		return
	}
	if err := h.courses.Delete(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, version); err != nil {
		h.fail(c, "Delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /tutor/courses/:id/submit
func (h *CourseHandler) Submit(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	version, ok := expectedVersion(c, nil)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("If-Match must be a course version"))
		return
	}
	course, err := h.courses.SubmitForApproval(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, version)
	if err != nil {
		h.fail(c, "Submit", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{"course": toCourseResponse(course)})
}

// POST /tutor/courses/:id/thumbnail (multipart/form-data)
// field: "file"
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	file := services.ThumbnailFile{}
	fh, err := c.FormFile("file")
	if err == nil {
		f, openErr := fh.Open()
		if openErr != nil {
			response.RespondError(c, http.StatusBadRequest, "open_file_failed", openErr)
			return
		}
		defer f.Close()
		file = services.ThumbnailFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	}
	// A missing part reaches the service as an empty file so ownership and
	// state errors still take precedence.
	course, err := h.thumbnails.Upload(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id, file)
	if err != nil {
		h.fail(c, "UploadThumbnail", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{
		"course":     toCourseResponse(course),
		"secure_url": course.ThumbnailURL,
		"public_id":  course.ThumbnailKey,
	})
}

// POST /tutor/courses/:id/thumbnail/generate
func (h *CourseHandler) GenerateThumbnail(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	course, err := h.thumbnails.Generate(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id)
	if err != nil {
		h.fail(c, "GenerateThumbnail", err)
		return
	}
	setETag(c, course)
	response.RespondOK(c, gin.H{"course": toCourseResponse(course)})
}

// GET /tutor/courses/:id/reviews, GET /admin/courses/:id/reviews
func (h *CourseHandler) ListReviews(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	rows, err := h.courses.ListReviews(c.Request.Context(), services.IdentityFromContext(c.Request.Context()), id)
	if err != nil {
		h.fail(c, "ListReviews", err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": toReviewResponses(rows)})
}

func (h *CourseHandler) fail(c *gin.Context, op string, err error) {
	logFailure(h.log, c, op, err)
	response.Error(c, err)
}

// ---- helpers ----

func courseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", errors.New("course id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// logFailure logs server-side failures at error level and client errors at
// debug level.
func logFailure(log *logger.Logger, c *gin.Context, op string, err error) {
	mapped := response.FromError(err)
	if mapped.Status >= http.StatusInternalServerError {
		log.Error(op+" failed", "error", err, "path", c.FullPath())
		return
	}
	log.Debug(op+" rejected", "error", err, "status", mapped.Status)
}
