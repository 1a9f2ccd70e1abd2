package authoring

import (
	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
	"github.com/yungbote/coursecraft-backend/internal/domain/user"
)

// Identity is the acting caller. It is passed explicitly into every operation.
type Identity struct {
	UserID uuid.UUID
	Role   user.Role
}

func (id Identity) IsAdmin() bool { return id.Role == user.RoleAdmin }

type Action string

const (
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionSubmit          Action = "submit"
	ActionUploadThumbnail Action = "upload_thumbnail"
	ActionDecide          Action = "decide"
	ActionListOwn         Action = "list_own"
	ActionListPending     Action = "list_pending"
	ActionViewReviews     Action = "view_reviews"
)

var capabilities = map[user.Role]map[Action]bool{
	user.RoleTutor: {
		ActionCreate:          true,
		ActionUpdate:          true,
		ActionDelete:          true,
		ActionSubmit:          true,
		ActionUploadThumbnail: true,
		ActionListOwn:         true,
		ActionViewReviews:     true,
	},
	user.RoleAdmin: {
		ActionDelete:      true,
		ActionDecide:      true,
		ActionListPending: true,
		ActionViewReviews: true,
	},
}

// Can is the role capability check. It says nothing about which course.
func Can(id Identity, action Action) bool {
	if id.UserID == uuid.Nil {
		return false
	}
	return capabilities[id.Role][action]
}

// RequireCapability turns a failed Can into a Forbidden error.
func RequireCapability(op string, id Identity, action Action) error {
	if Can(id, action) {
		return nil
	}
	return domainagg.NewError(domainagg.CodeForbidden, op, "You don't have permission to perform this action", nil)
}

var ownerMessages = map[Action]string{
	ActionUpdate:          "You don't have permission to update this course",
	ActionUploadThumbnail: "You don't have permission to update this course",
	ActionDelete:          "You don't have permission to delete this course",
	ActionSubmit:          "You don't have permission to submit this course",
	ActionViewReviews:     "You don't have permission to view this course",
}

// Authorize checks that id may perform action on this particular course.
// Owner-scoped actions require id to be the course's tutor. Admin-scoped
// actions, and deletes or review reads by an admin, skip the ownership check;
// the admin capability itself is verified by Can.
func Authorize(op string, action Action, c *courses.Course, id Identity) error {
	if c == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, "Course not found", nil)
	}
	switch action {
	case ActionDecide, ActionListPending:
		return nil
	case ActionDelete, ActionViewReviews:
		if id.IsAdmin() {
			return nil
		}
	}
	msg, ownerScoped := ownerMessages[action]
	if !ownerScoped {
		return nil
	}
	if id.UserID == uuid.Nil || id.UserID != c.TutorID {
		return domainagg.NewError(domainagg.CodeForbidden, op, msg, nil)
	}
	return nil
}
