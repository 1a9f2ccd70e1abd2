package aggregates

import "slices"

// Boundary names the tables an aggregate writes. Writes to them go through
// the aggregate's methods, each of which runs in a single transaction.
type Boundary struct {
	Name   string
	Tables []string
	// LocksRoot is set when a write locks the root row before reading the
	// rest of the aggregate.
	LocksRoot bool
}

func (b Boundary) Owns(table string) bool {
	return slices.Contains(b.Tables, table)
}

type Aggregate interface {
	Boundary() Boundary
}

// CourseBoundary covers a course, its module tree and its review history.
var CourseBoundary = Boundary{
	Name: "Course",
	Tables: []string{
		"course",
		"course_module",
		"lesson",
		"lesson_resource",
		"exercise",
		"question",
		"question_option",
		"course_review",
	},
	LocksRoot: true,
}
