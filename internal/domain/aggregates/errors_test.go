package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(CodeForbidden, "Course.Update", "You don't have permission to update this course", nil)
	if got := err.Error(); got != "Course.Update: You don't have permission to update this course (forbidden)" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := MessageOf(err); got != "You don't have permission to update this course" {
		t.Fatalf("MessageOf: %q", got)
	}
}

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	base := NewError(CodeInvalidState, "Course.Submit", "Course is already submitted or approved", nil)
	wrapped := fmt.Errorf("service: %w", base)
	if !IsCode(wrapped, CodeInvalidState) {
		t.Fatalf("expected invalid_state through fmt wrap")
	}
	if CodeOf(wrapped) != CodeInvalidState {
		t.Fatalf("CodeOf: got=%q", CodeOf(wrapped))
	}
	if IsCode(errors.New("plain"), CodeInvalidState) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestValidationErrorKeepsAllReasons(t *testing.T) {
	reasons := []string{"Course title is required", "Course price is required"}
	err := NewValidationError("Course.Submit", "Cannot submit course: Course title is required, Course price is required", reasons)
	reasons[0] = "mutated"

	got := ReasonsOf(err)
	if len(got) != 2 {
		t.Fatalf("reasons len: want=2 got=%d", len(got))
	}
	if got[0] != "Course title is required" {
		t.Fatalf("reasons should be copied on construction, got=%q", got[0])
	}
}

func TestReasonsOfFallsBackToMessage(t *testing.T) {
	err := NewError(CodeValidation, "Thumbnail.Upload", "File must be an image", nil)
	got := ReasonsOf(err)
	if len(got) != 1 || got[0] != "File must be an image" {
		t.Fatalf("unexpected reasons: %v", got)
	}
	if ReasonsOf(errors.New("x")) != nil {
		t.Fatalf("non aggregate errors have no reasons")
	}
}
