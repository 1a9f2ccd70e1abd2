package domain

import (
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
	"github.com/yungbote/coursecraft-backend/internal/domain/user"
)

type (
	Course       = courses.Course
	Module       = courses.Module
	Lesson       = courses.Lesson
	Resource     = courses.Resource
	Exercise     = courses.Exercise
	Question     = courses.Question
	Option       = courses.Option
	CourseReview = courses.CourseReview

	CourseLevel  = courses.Level
	CourseStatus = courses.Status

	User     = user.User
	UserRole = user.Role
)

const (
	CourseStatusDraft           = courses.StatusDraft
	CourseStatusPendingApproval = courses.StatusPendingApproval
	CourseStatusApproved        = courses.StatusApproved
	CourseStatusRejected        = courses.StatusRejected

	RoleStudent = user.RoleStudent
	RoleTutor   = user.RoleTutor
	RoleAdmin   = user.RoleAdmin
)

// AllModels lists every persisted type in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&user.User{},
		&courses.Course{},
		&courses.Module{},
		&courses.Lesson{},
		&courses.Resource{},
		&courses.Exercise{},
		&courses.Question{},
		&courses.Option{},
		&courses.CourseReview{},
	}
}
