package authoring

import (
	"fmt"

	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
)

// CourseInput is the authoring payload for create and update.
//
// Pointer fields left nil are not applied on update. Modules == nil keeps the
// existing tree on update and means "no modules" on create; a non-nil slice,
// even empty, replaces the whole tree.
type CourseInput struct {
	Title               *string
	Description         *string
	DurationInMinutes   *int
	Level               *courses.Level
	Price               *float64
	CourseOverview      *string
	CourseContent       *string
	IncludesDescription *string
	ThumbnailURL        *string

	Modules []ModuleInput
}

type ModuleInput struct {
	Title             string
	Description       string
	DurationInMinutes int
	Lessons           []LessonInput
}

type LessonInput struct {
	Title             string
	Description       string
	Content           string
	VideoURL          string
	DurationInMinutes int
	Resources         []ResourceInput
	Exercises         []ExerciseInput
}

type ResourceInput struct {
	Title       string
	Description string
	Type        courses.ResourceType
	URL         string
}

type ExerciseInput struct {
	Title       string
	Description string
	Type        courses.ExerciseType
	Questions   []QuestionInput
}

type QuestionInput struct {
	Content       string
	Hint          string
	CorrectAnswer string
	Explanation   string
	Points        int
	Options       []OptionInput
}

type OptionInput struct {
	Content   string
	IsCorrect bool
}

// Validate checks the payload shape independent of any stored course. It
// returns one reason per problem found.
func (in CourseInput) Validate() []string {
	var reasons []string
	if in.Level != nil && *in.Level != "" && !in.Level.Valid() {
		reasons = append(reasons, "Course level must be one of BEGINNER, INTERMEDIATE, ADVANCED, ALL_LEVELS")
	}
	if in.Price != nil && *in.Price < 0 {
		reasons = append(reasons, "Course price must not be negative")
	}
	if in.DurationInMinutes != nil && *in.DurationInMinutes < 0 {
		reasons = append(reasons, "Course duration must not be negative")
	}
	for mi, m := range in.Modules {
		for li, l := range m.Lessons {
			for ri, r := range l.Resources {
				if r.Type != "" && !r.Type.Valid() {
					reasons = append(reasons, fmt.Sprintf("modules[%d].lessons[%d].resources[%d]: unknown resource type %q", mi, li, ri, r.Type))
				}
			}
			for ei, e := range l.Exercises {
				if e.Type != "" && !e.Type.Valid() {
					reasons = append(reasons, fmt.Sprintf("modules[%d].lessons[%d].exercises[%d]: unknown exercise type %q", mi, li, ei, e.Type))
				}
			}
		}
	}
	return reasons
}
