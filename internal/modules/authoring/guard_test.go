package authoring

import (
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
	"github.com/yungbote/coursecraft-backend/internal/domain/user"
)

func TestCanByRole(t *testing.T) {
	tutor := Identity{UserID: uuid.New(), Role: user.RoleTutor}
	admin := Identity{UserID: uuid.New(), Role: user.RoleAdmin}
	student := Identity{UserID: uuid.New(), Role: user.RoleStudent}

	cases := []struct {
		id     Identity
		action Action
		want   bool
	}{
		{tutor, ActionCreate, true},
		{tutor, ActionSubmit, true},
		{tutor, ActionDecide, false},
		{tutor, ActionListPending, false},
		{admin, ActionDecide, true},
		{admin, ActionDelete, true},
		{admin, ActionCreate, false},
		{admin, ActionUpdate, false},
		{student, ActionCreate, false},
		{student, ActionViewReviews, false},
		{Identity{Role: user.RoleTutor}, ActionCreate, false},
	}
	for _, tc := range cases {
		if got := Can(tc.id, tc.action); got != tc.want {
			t.Fatalf("Can(%s, %s): want=%v got=%v", tc.id.Role, tc.action, tc.want, got)
		}
	}
}

func TestRequireCapabilityForbidden(t *testing.T) {
	err := RequireCapability("Course.Create", Identity{UserID: uuid.New(), Role: user.RoleStudent}, ActionCreate)
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("want forbidden, got=%v", err)
	}
}

func TestAuthorizeOwnership(t *testing.T) {
	owner := Identity{UserID: uuid.New(), Role: user.RoleTutor}
	other := Identity{UserID: uuid.New(), Role: user.RoleTutor}
	admin := Identity{UserID: uuid.New(), Role: user.RoleAdmin}
	c := &courses.Course{ID: uuid.New(), TutorID: owner.UserID, Status: courses.StatusDraft}

	for _, action := range []Action{ActionUpdate, ActionDelete, ActionSubmit, ActionUploadThumbnail, ActionViewReviews} {
		if err := Authorize("op", action, c, owner); err != nil {
			t.Fatalf("owner %s: unexpected err=%v", action, err)
		}
		if err := Authorize("op", action, c, other); !domainagg.IsCode(err, domainagg.CodeForbidden) {
			t.Fatalf("non-owner %s: want forbidden, got=%v", action, err)
		}
	}

	if err := Authorize("op", ActionDelete, c, admin); err != nil {
		t.Fatalf("admin delete: unexpected err=%v", err)
	}
	if err := Authorize("op", ActionDecide, c, admin); err != nil {
		t.Fatalf("admin decide: unexpected err=%v", err)
	}
	if err := Authorize("op", ActionUpdate, c, admin); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("admin update of someone else's course: want forbidden, got=%v", err)
	}
}

func TestAuthorizeMessages(t *testing.T) {
	c := &courses.Course{ID: uuid.New(), TutorID: uuid.New()}
	stranger := Identity{UserID: uuid.New(), Role: user.RoleTutor}

	want := map[Action]string{
		ActionUpdate: "You don't have permission to update this course",
		ActionDelete: "You don't have permission to delete this course",
		ActionSubmit: "You don't have permission to submit this course",
	}
	for action, msg := range want {
		err := Authorize("op", action, c, stranger)
		if got := domainagg.MessageOf(err); got != msg {
			t.Fatalf("%s: want=%q got=%q", action, msg, got)
		}
	}
}

func TestAuthorizeMissingCourse(t *testing.T) {
	err := Authorize("op", ActionUpdate, nil, Identity{UserID: uuid.New(), Role: user.RoleTutor})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found, got=%v", err)
	}
}
