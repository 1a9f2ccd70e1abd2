package aggregates

import "testing"

func TestCourseBoundaryOwnsTreeTables(t *testing.T) {
	for _, table := range []string{"course", "lesson", "question_option", "course_review"} {
		if !CourseBoundary.Owns(table) {
			t.Errorf("expected %s inside the course boundary", table)
		}
	}
	if CourseBoundary.Owns("user") {
		t.Errorf("user table is not part of a course")
	}
}
