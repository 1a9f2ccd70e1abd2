package authoring

import (
	"github.com/samber/lo"

	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
)

// RecalculateLessonCount derives LessonCount from the in-memory module list and
// stores it on the course.
func RecalculateLessonCount(c *courses.Course) int {
	if c == nil {
		return 0
	}
	c.LessonCount = lo.SumBy(c.Modules, func(m *courses.Module) int {
		if m == nil {
			return 0
		}
		return len(m.Lessons)
	})
	return c.LessonCount
}
