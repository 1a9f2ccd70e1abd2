package handlers

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

var registerOnce sync.Once

// RegisterValidators adds the course enum tags to gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
			_, ok := courses.ParseLevel(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("course_status", func(fl validator.FieldLevel) bool {
			_, ok := courses.ParseStatus(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("course_decision", func(fl validator.FieldLevel) bool {
			s, ok := courses.ParseStatus(fl.Field().String())
			return ok && (s == courses.StatusApproved || s == courses.StatusRejected)
		})
	})
}

// ---- requests ----

// CourseRequest is used for both create and update. Absent fields are left
// untouched on update; an absent modules array keeps the stored tree and an
// empty one clears it.
type CourseRequest struct {
	Title               *string         `json:"title" binding:"omitempty,max=255"`
	Description         *string         `json:"description"`
	DurationInMinutes   *int            `json:"duration_in_minutes" binding:"omitempty,min=0"`
	Level               *string         `json:"level" binding:"omitempty,course_level"`
	Price               *float64        `json:"price" binding:"omitempty,min=0"`
	CourseOverview      *string         `json:"course_overview"`
	CourseContent       *string         `json:"course_content"`
	IncludesDescription *string         `json:"includes_description"`
	ThumbnailURL        *string         `json:"thumbnail_url" binding:"omitempty,url"`
	Modules             []ModuleRequest `json:"modules" binding:"omitempty,dive"`

	ExpectedVersion *int `json:"expected_version" binding:"omitempty,min=0"`
}

type ModuleRequest struct {
	Title             string          `json:"title" binding:"max=255"`
	Description       string          `json:"description"`
	DurationInMinutes int             `json:"duration_in_minutes" binding:"min=0"`
	Lessons           []LessonRequest `json:"lessons" binding:"omitempty,dive"`
}

type LessonRequest struct {
	Title             string            `json:"title" binding:"max=255"`
	Description       string            `json:"description"`
	Content           string            `json:"content"`
	VideoURL          string            `json:"video_url"`
	DurationInMinutes int               `json:"duration_in_minutes" binding:"min=0"`
	Resources         []ResourceRequest `json:"resources" binding:"omitempty,dive"`
	Exercises         []ExerciseRequest `json:"exercises" binding:"omitempty,dive"`
}

type ResourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
}

type ExerciseRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Questions   []QuestionRequest `json:"questions" binding:"omitempty,dive"`
}

type QuestionRequest struct {
	Content       string          `json:"content"`
	Hint          string          `json:"hint"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	Points        int             `json:"points" binding:"min=0"`
	Options       []OptionRequest `json:"options"`
}

type OptionRequest struct {
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,course_decision"`
	Reason   string `json:"reason" binding:"max=2000"`
}

type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (q pageQuery) request() services.PageRequest {
	return services.PageRequest{Limit: q.Limit, Offset: q.Offset}
}

func (r CourseRequest) toInput() authoring.CourseInput {
	in := authoring.CourseInput{
		Title:               r.Title,
		Description:         r.Description,
		DurationInMinutes:   r.DurationInMinutes,
		Price:               r.Price,
		CourseOverview:      r.CourseOverview,
		CourseContent:       r.CourseContent,
		IncludesDescription: r.IncludesDescription,
		ThumbnailURL:        r.ThumbnailURL,
	}
	if r.Level != nil {
		lvl, _ := courses.ParseLevel(*r.Level)
		in.Level = &lvl
	}
	if r.Modules != nil {
		in.Modules = lo.Map(r.Modules, func(m ModuleRequest, _ int) authoring.ModuleInput {
			return authoring.ModuleInput{
				Title:             m.Title,
				Description:       m.Description,
				DurationInMinutes: m.DurationInMinutes,
				Lessons:           lo.Map(m.Lessons, toLessonInput),
			}
		})
	}
	return in
}

func toLessonInput(l LessonRequest, _ int) authoring.LessonInput {
	return authoring.LessonInput{
		Title:             l.Title,
		Description:       l.Description,
		Content:           l.Content,
		VideoURL:          l.VideoURL,
		DurationInMinutes: l.DurationInMinutes,
		Resources: lo.Map(l.Resources, func(r ResourceRequest, _ int) authoring.ResourceInput {
			return authoring.ResourceInput{
				Title:       r.Title,
				Description: r.Description,
				Type:        courses.ResourceType(strings.ToUpper(strings.TrimSpace(r.Type))),
				URL:         r.URL,
			}
		}),
		Exercises: lo.Map(l.Exercises, func(e ExerciseRequest, _ int) authoring.ExerciseInput {
			return authoring.ExerciseInput{
				Title:       e.Title,
				Description: e.Description,
				Type:        courses.ExerciseType(strings.ToUpper(strings.TrimSpace(e.Type))),
				Questions: lo.Map(e.Questions, func(q QuestionRequest, _ int) authoring.QuestionInput {
					return authoring.QuestionInput{
						Content:       q.Content,
						Hint:          q.Hint,
						CorrectAnswer: q.CorrectAnswer,
						Explanation:   q.Explanation,
						Points:        q.Points,
						Options: lo.Map(q.Options, func(o OptionRequest, _ int) authoring.OptionInput {
							return authoring.OptionInput{Content: o.Content, IsCorrect: o.IsCorrect}
						}),
					}
				}),
			}
		}),
	}
}

// expectedVersion prefers the If-Match header over the body field.
func expectedVersion(c *gin.Context, body *int) (*int, bool) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return body, true
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func setETag(c *gin.Context, course *types.Course) {
	if course != nil {
		c.Header("ETag", strconv.Quote(strconv.Itoa(course.Version)))
	}
}

// ---- responses ----

type CourseSummaryResponse struct {
	ID                uuid.UUID `json:"id"`
	TutorID           uuid.UUID `json:"tutor_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	DurationInMinutes int       `json:"duration_in_minutes"`
	Level             string    `json:"level,omitempty"`
	Price             *float64  `json:"price,omitempty"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	LessonCount       int       `json:"lesson_count"`
	Status            string    `json:"status"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type CourseResponse struct {
	CourseSummaryResponse
	CourseOverview      string           `json:"course_overview"`
	CourseContent       string           `json:"course_content"`
	IncludesDescription string           `json:"includes_description"`
	Modules             []ModuleResponse `json:"modules"`
}

type ModuleResponse struct {
	ID                uuid.UUID        `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	DurationInMinutes int              `json:"duration_in_minutes"`
	Position          int              `json:"position"`
	Lessons           []LessonResponse `json:"lessons"`
}

type LessonResponse struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Content           string             `json:"content"`
	VideoURL          string             `json:"video_url"`
	DurationInMinutes int                `json:"duration_in_minutes"`
	Position          int                `json:"position"`
	Resources         []ResourceResponse `json:"resources"`
	Exercises         []ExerciseResponse `json:"exercises"`
}

type ResourceResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Position    int       `json:"position"`
}

type ExerciseResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Position    int                `json:"position"`
	Questions   []QuestionResponse `json:"questions"`
}

type QuestionResponse struct {
	ID            uuid.UUID        `json:"id"`
	Content       string           `json:"content"`
	Hint          string           `json:"hint"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation"`
	Points        int              `json:"points"`
	Position      int              `json:"position"`
	Options       []OptionResponse `json:"options"`
}

type OptionResponse struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	IsCorrect bool      `json:"is_correct"`
	Position  int       `json:"position"`
}

type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	AdminID    uuid.UUID `json:"admin_id"`
	Decision   string    `json:"decision"`
	FromStatus string    `json:"from_status"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CoursePageResponse struct {
	Courses []CourseSummaryResponse `json:"courses"`
	Total   int64                   `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

func toCourseSummary(c *types.Course) CourseSummaryResponse {
	return CourseSummaryResponse{
		ID:                c.ID,
		TutorID:           c.TutorID,
		Title:             c.Title,
		Description:       c.Description,
		DurationInMinutes: c.DurationInMinutes,
		Level:             string(c.Level),
		Price:             c.Price,
		ThumbnailURL:      c.ThumbnailURL,
		LessonCount:       c.LessonCount,
		Status:            string(c.Status),
		Version:           c.Version,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func toCourseResponse(c *types.Course) CourseResponse {
	return CourseResponse{
		CourseSummaryResponse: toCourseSummary(c),
		CourseOverview:        c.CourseOverview,
		CourseContent:         c.CourseContent,
		IncludesDescription:   c.IncludesDescription,
		Modules: lo.Map(c.Modules, func(m *types.Module, _ int) ModuleResponse {
			return ModuleResponse{
				ID:                m.ID,
				Title:             m.Title,
				Description:       m.Description,
				DurationInMinutes: m.DurationInMinutes,
				Position:          m.Position,
				Lessons:           lo.Map(m.Lessons, toLessonResponse),
			}
		}),
	}
}

func toLessonResponse(l *types.Lesson, _ int) LessonResponse {
	return LessonResponse{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		Content:           l.Content,
		VideoURL:          l.VideoURL,
		DurationInMinutes: l.DurationInMinutes,
		Position:          l.Position,
		Resources: lo.Map(l.Resources, func(r *types.Resource, _ int) ResourceResponse {
			return ResourceResponse{ID: r.ID, Title: r.Title, Description: r.Description, Type: string(r.Type), URL: r.URL, Position: r.Position}
		}),
		Exercises: lo.Map(l.Exercises, func(e *types.Exercise, _ int) ExerciseResponse {
			return ExerciseResponse{
				ID:          e.ID,
				Title:       e.Title,
				Description: e.Description,
				Type:        string(e.Type),
				Position:    e.Position,
				Questions: lo.Map(e.Questions, func(q *types.Question, _ int) QuestionResponse {
					return QuestionResponse{
						ID:            q.ID,
						Content:       q.Content,
						Hint:          q.Hint,
						CorrectAnswer: q.CorrectAnswer,
						Explanation:   q.Explanation,
						Points:        q.Points,
						Position:      q.Position,
						Options: lo.Map(q.Options, func(o *types.Option, _ int) OptionResponse {
							return OptionResponse{ID: o.ID, Content: o.Content, IsCorrect: o.IsCorrect, Position: o.Position}
						}),
					}
				}),
			}
		}),
	}
}

func toCoursePage(p services.Page[*types.Course]) CoursePageResponse {
	return CoursePageResponse{
		Courses: lo.Map(p.Items, func(c *types.Course, _ int) CourseSummaryResponse { return toCourseSummary(c) }),
		Total:   p.Total,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}
}

func toReviewResponses(rows []*types.CourseReview) []ReviewResponse {
	return lo.Map(rows, func(r *types.CourseReview, _ int) ReviewResponse {
		return ReviewResponse{
			ID:         r.ID,
			AdminID:    r.AdminID,
			Decision:   string(r.Decision),
			FromStatus: string(r.FromStatus),
			Reason:     r.Reason,
			CreatedAt:  r.CreatedAt,
		}
	})
}
