package authoring

import (
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/courses"
)

var transitions = map[courses.Status][]courses.Status{
	courses.StatusDraft:           {courses.StatusPendingApproval},
	courses.StatusRejected:        {courses.StatusPendingApproval},
	courses.StatusPendingApproval: {courses.StatusApproved, courses.StatusRejected},
	courses.StatusApproved:        {},
}

// CanTransition reports whether from -> to is a defined lifecycle edge.
func CanTransition(from, to courses.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf lists the states that may move to `to`.
func SourcesOf(to courses.Status) []string {
	var out []string
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				out = append(out, string(from))
			}
		}
	}
	return out
}

func EditableStatuses() []string {
	return []string{string(courses.StatusDraft), string(courses.StatusRejected)}
}

// RequireEditable guards structural edits and thumbnail changes.
func RequireEditable(op string, status courses.Status) error {
	if status.Editable() {
		return nil
	}
	return domainagg.NewError(domainagg.CodeInvalidState, op, "Cannot edit a course that is pending approval or approved", nil)
}

// RequireDeletable lets admins delete in any state and owners only while editable.
func RequireDeletable(op string, status courses.Status, id Identity) error {
	if id.IsAdmin() || status.Editable() {
		return nil
	}
	return domainagg.NewError(domainagg.CodeInvalidState, op, "Cannot delete a course that is pending approval or approved", nil)
}

func RequireSubmittable(op string, status courses.Status) error {
	if CanTransition(status, courses.StatusPendingApproval) {
		return nil
	}
	return domainagg.NewError(domainagg.CodeInvalidState, op, "Course is already submitted or approved", nil)
}

// RequireDecision validates an admin decision against the current status.
func RequireDecision(op string, status, decision courses.Status) error {
	if decision != courses.StatusApproved && decision != courses.StatusRejected {
		return domainagg.NewError(domainagg.CodeValidation, op, "Decision must be APPROVED or REJECTED", nil)
	}
	if !CanTransition(status, decision) {
		return domainagg.NewError(domainagg.CodeInvalidState, op, "Course is not in pending approval state", nil)
	}
	return nil
}
