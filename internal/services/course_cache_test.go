package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
)

// gatedCourses parks GetTree after the row has been read until release is
// closed, then honors ctx like a real driver would.
type gatedCourses struct {
	courserepo.CourseRepo
	entered chan struct{}
	release chan struct{}
}

func newGatedCourses(inner courserepo.CourseRepo) *gatedCourses {
	return &gatedCourses{CourseRepo: inner, entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedCourses) GetTree(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	course, err := g.CourseRepo.GetTree(ctx, tx, id)
	g.entered <- struct{}{}
	<-g.release
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return course, err
}

func (f *serviceFixture) serviceWith(t *testing.T, courses courserepo.CourseRepo) CourseService {
	t.Helper()
	return NewCourseService(CourseServiceDeps{
		Log:       testutil.Logger(t),
		Courses:   courses,
		Reviews:   courserepo.NewCourseReviewRepo(f.db, testutil.Logger(t)),
		Users:     f.users,
		Aggregate: f.aggregate,
		Cache:     f.cache,
		Bucket:    f.bucket,
		Notifier:  f.notifier,
		Dispatch:  func(fn func()) { fn() },
	})
}

func waitEntered(t *testing.T, g *gatedCourses) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("load never reached the repo")
	}
}

type getResult struct {
	course *types.Course
	err    error
}

func TestDeleteDuringLoadLeavesNothingCached(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	c := f.approvedCourse(t, "Grammar Drills")

	gated := newGatedCourses(f.courses)
	svc := f.serviceWith(t, gated)

	done := make(chan getResult, 1)
	go func() {
		course, err := svc.Get(ctx, authoring.Identity{}, c.ID)
		done <- getResult{course, err}
	}()
	waitEntered(t, gated)

	if err := svc.Delete(ctx, f.admin, c.ID, nil); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	close(gated.release)
	<-done

	if _, ok, _ := f.cache.Get(ctx, c.ID); ok {
		t.Fatalf("deleted course is still cached")
	}
	_, err := svc.Get(ctx, authoring.Identity{}, c.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	f := newServiceFixture(t)
	c := f.approvedCourse(t, "Listening Practice")

	gated := newGatedCourses(f.courses)
	svc := f.serviceWith(t, gated)

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan getResult, 1)
	go func() {
		course, err := svc.Get(firstCtx, authoring.Identity{}, c.ID)
		first <- getResult{course, err}
	}()
	waitEntered(t, gated)

	second := make(chan getResult, 1)
	go func() {
		course, err := svc.Get(context.Background(), authoring.Identity{}, c.ID)
		second <- getResult{course, err}
	}()

	cancel()
	select {
	case res := <-first:
		if !errors.Is(res.err, context.Canceled) {
			t.Fatalf("cancelled caller: want context.Canceled, got %v", res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("cancelled caller did not return")
	}

	close(gated.release)
	res := <-second
	if res.err != nil {
		t.Fatalf("waiting caller failed: %v", res.err)
	}
	if res.course == nil || res.course.ID != c.ID {
		t.Fatalf("waiting caller got %+v", res.course)
	}
}
