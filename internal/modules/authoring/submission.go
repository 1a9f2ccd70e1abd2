package authoring

import (
	"strings"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
)

const (
	ReasonTitleRequired       = "Course title is required"
	ReasonDescriptionRequired = "Course description is required"
	ReasonLevelRequired       = "Course level is required"
	ReasonPriceRequired       = "Course price is required"
	ReasonModuleRequired      = "Course must have at least one module"
	ReasonLessonRequired      = "Course must have at least one lesson"
)

// ValidateForSubmission returns every rule the course breaks, in a fixed
// order. An empty result means the course may be submitted for review.
func ValidateForSubmission(c *courses.Course) []string {
	var reasons []string
	if c == nil {
		return []string{
			ReasonTitleRequired, ReasonDescriptionRequired, ReasonLevelRequired,
			ReasonPriceRequired, ReasonModuleRequired, ReasonLessonRequired,
		}
	}
	if strings.TrimSpace(c.Title) == "" {
		reasons = append(reasons, ReasonTitleRequired)
	}
	if strings.TrimSpace(c.Description) == "" {
		reasons = append(reasons, ReasonDescriptionRequired)
	}
	if c.Level == "" {
		reasons = append(reasons, ReasonLevelRequired)
	}
	if c.Price == nil {
		reasons = append(reasons, ReasonPriceRequired)
	}
	if len(c.Modules) == 0 {
		reasons = append(reasons, ReasonModuleRequired)
	}
	hasLesson := false
	for _, m := range c.Modules {
		if m != nil && len(m.Lessons) > 0 {
			hasLesson = true
			break
		}
	}
	if !hasLesson {
		reasons = append(reasons, ReasonLessonRequired)
	}
	return reasons
}

// SubmissionError wraps the violated rules in a single validation error.
func SubmissionError(op string, reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return domainagg.NewValidationError(op, "Cannot submit course: "+strings.Join(reasons, ", "), reasons)
}
