package authoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
)

// NewCourse builds a DRAFT course owned by tutorID from the authoring payload.
func NewCourse(tutorID uuid.UUID, in CourseInput, now time.Time) *courses.Course {
	c := &courses.Course{
		ID:        uuid.New(),
		TutorID:   tutorID,
		Status:    courses.StatusDraft,
		Modules:   []*courses.Module{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Modules == nil {
		in.Modules = []ModuleInput{}
	}
	Rebuild(c, in, now)
	return c
}

// Rebuild applies the scalar fields of in to c, replaces the module tree when
// in.Modules is non-nil, and always recomputes the lesson count. Every
// structural write funnels through here. It reports whether the tree was
// replaced.
func Rebuild(c *courses.Course, in CourseInput, now time.Time) bool {
	applyFields(c, in)
	replaced := false
	if in.Modules != nil {
		c.Modules = BuildModules(c.ID, in.Modules, now)
		replaced = true
	}
	RecalculateLessonCount(c)
	c.UpdatedAt = now
	return replaced
}

func applyFields(c *courses.Course, in CourseInput) {
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.DurationInMinutes != nil {
		c.DurationInMinutes = *in.DurationInMinutes
	}
	if in.Level != nil {
		c.Level = *in.Level
	}
	if in.Price != nil {
		p := *in.Price
		c.Price = &p
	}
	if in.CourseOverview != nil {
		c.CourseOverview = *in.CourseOverview
	}
	if in.CourseContent != nil {
		c.CourseContent = *in.CourseContent
	}
	if in.IncludesDescription != nil {
		c.IncludesDescription = *in.IncludesDescription
	}
	if in.ThumbnailURL != nil {
		c.ThumbnailURL = strings.TrimSpace(*in.ThumbnailURL)
	}
}

// BuildModules turns the nested request into a fresh tree. Every node gets a
// new id, its parent's id, and its 1-based position among its siblings.
func BuildModules(courseID uuid.UUID, in []ModuleInput, now time.Time) []*courses.Module {
	modules := lo.Map(in, func(mi ModuleInput, _ int) *courses.Module {
		m := &courses.Module{
			ID:                uuid.New(),
			CourseID:          courseID,
			Title:             mi.Title,
			Description:       mi.Description,
			DurationInMinutes: mi.DurationInMinutes,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		m.Lessons = buildLessons(m.ID, mi.Lessons, now)
		return m
	})
	AssignPositions(modules, func(m *courses.Module, pos int) { m.Position = pos })
	return modules
}

func buildLessons(moduleID uuid.UUID, in []LessonInput, now time.Time) []*courses.Lesson {
	lessons := lo.Map(in, func(li LessonInput, _ int) *courses.Lesson {
		l := &courses.Lesson{
			ID:                uuid.New(),
			ModuleID:          moduleID,
			Title:             li.Title,
			Description:       li.Description,
			Content:           li.Content,
			VideoURL:          li.VideoURL,
			DurationInMinutes: li.DurationInMinutes,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		l.Resources = lo.Map(li.Resources, func(ri ResourceInput, _ int) *courses.Resource {
			return &courses.Resource{
				ID:          uuid.New(),
				LessonID:    l.ID,
				Title:       ri.Title,
				Description: ri.Description,
				Type:        ri.Type,
				URL:         ri.URL,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
		})
		AssignPositions(l.Resources, func(r *courses.Resource, pos int) { r.Position = pos })
		l.Exercises = buildExercises(l.ID, li.Exercises, now)
		return l
	})
	AssignPositions(lessons, func(l *courses.Lesson, pos int) { l.Position = pos })
	return lessons
}

func buildExercises(lessonID uuid.UUID, in []ExerciseInput, now time.Time) []*courses.Exercise {
	exercises := lo.Map(in, func(ei ExerciseInput, _ int) *courses.Exercise {
		e := &courses.Exercise{
			ID:          uuid.New(),
			LessonID:    lessonID,
			Title:       ei.Title,
			Description: ei.Description,
			Type:        ei.Type,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		e.Questions = lo.Map(ei.Questions, func(qi QuestionInput, _ int) *courses.Question {
			q := &courses.Question{
				ID:            uuid.New(),
				ExerciseID:    e.ID,
				Content:       qi.Content,
				Hint:          qi.Hint,
				CorrectAnswer: qi.CorrectAnswer,
				Explanation:   qi.Explanation,
				Points:        qi.Points,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			q.Options = lo.Map(qi.Options, func(oi OptionInput, _ int) *courses.Option {
				return &courses.Option{
					ID:         uuid.New(),
					QuestionID: q.ID,
					Content:    oi.Content,
					IsCorrect:  oi.IsCorrect,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
			})
			AssignPositions(q.Options, func(o *courses.Option, pos int) { o.Position = pos })
			return q
		})
		AssignPositions(e.Questions, func(q *courses.Question, pos int) { q.Position = pos })
		return e
	})
	AssignPositions(exercises, func(e *courses.Exercise, pos int) { e.Position = pos })
	return exercises
}

// CheckTree verifies the structural invariants of an in-memory course: parent
// references, contiguous positions at every level, and a fresh lesson count.
func CheckTree(c *courses.Course) error {
	if c == nil {
		return fmt.Errorf("nil course")
	}
	if !PositionsContiguous(c.Modules, func(m *courses.Module) int { return m.Position }) {
		return fmt.Errorf("module positions are not contiguous")
	}
	lessons := 0
	for _, m := range c.Modules {
		if m.CourseID != c.ID {
			return fmt.Errorf("module %s does not reference course %s", m.ID, c.ID)
		}
		if !PositionsContiguous(m.Lessons, func(l *courses.Lesson) int { return l.Position }) {
			return fmt.Errorf("lesson positions in module %s are not contiguous", m.ID)
		}
		lessons += len(m.Lessons)
		for _, l := range m.Lessons {
			if err := checkLesson(m.ID, l); err != nil {
				return err
			}
		}
	}
	if lessons != c.LessonCount {
		return fmt.Errorf("lesson count %d is stale, tree has %d", c.LessonCount, lessons)
	}
	return nil
}

func checkLesson(moduleID uuid.UUID, l *courses.Lesson) error {
	if l.ModuleID != moduleID {
		return fmt.Errorf("lesson %s does not reference module %s", l.ID, moduleID)
	}
	if !PositionsContiguous(l.Resources, func(r *courses.Resource) int { return r.Position }) {
		return fmt.Errorf("resource positions in lesson %s are not contiguous", l.ID)
	}
	if !PositionsContiguous(l.Exercises, func(e *courses.Exercise) int { return e.Position }) {
		return fmt.Errorf("exercise positions in lesson %s are not contiguous", l.ID)
	}
	for _, r := range l.Resources {
		if r.LessonID != l.ID {
			return fmt.Errorf("resource %s does not reference lesson %s", r.ID, l.ID)
		}
	}
	for _, e := range l.Exercises {
		if e.LessonID != l.ID {
			return fmt.Errorf("exercise %s does not reference lesson %s", e.ID, l.ID)
		}
		if !PositionsContiguous(e.Questions, func(q *courses.Question) int { return q.Position }) {
			return fmt.Errorf("question positions in exercise %s are not contiguous", e.ID)
		}
		for _, q := range e.Questions {
			if q.ExerciseID != e.ID {
				return fmt.Errorf("question %s does not reference exercise %s", q.ID, e.ID)
			}
			if !PositionsContiguous(q.Options, func(o *courses.Option) int { return o.Position }) {
				return fmt.Errorf("option positions in question %s are not contiguous", q.ID)
			}
			for _, o := range q.Options {
				if o.QuestionID != q.ID {
					return fmt.Errorf("option %s does not reference question %s", o.ID, q.ID)
				}
			}
		}
	}
	return nil
}
