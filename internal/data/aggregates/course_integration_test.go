package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/coursecraft-backend/internal/data/aggregates/testutil"
	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
)

type courseFixture struct {
	db    *gorm.DB
	agg   aggregates.CourseAggregate
	tree  courserepo.TreeRepo
	repo  courserepo.CourseRepo
	hooks *aggtestutil.HooksRecorder
	tutor authoring.Identity
	admin authoring.Identity
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, types.RoleTutor)
	admin := testutil.SeedUser(t, ctx, db, types.RoleAdmin)

	hooks := &aggtestutil.HooksRecorder{}
	f := &courseFixture{
		db:    db,
		tree:  courserepo.NewTreeRepo(db, log),
		repo:  courserepo.NewCourseRepo(db, log),
		hooks: hooks,
		tutor: authoring.Identity{UserID: tutor.ID, Role: types.RoleTutor},
		admin: authoring.Identity{UserID: admin.ID, Role: types.RoleAdmin},
	}
	f.agg = aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base:    aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
		Courses: f.repo,
		Tree:    f.tree,
		Reviews: courserepo.NewCourseReviewRepo(db, log),
		Users:   userrepo.NewUserRepo(db, log),
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func submittableInput() authoring.CourseInput {
	return authoring.CourseInput{
		Title:       ptr("Conversational Japanese"),
		Description: ptr("Speak from day one"),
		Level:       ptr(types.CourseLevel("BEGINNER")),
		Price:       ptr(29.99),
		Modules: []authoring.ModuleInput{
			{Title: "A", Lessons: []authoring.LessonInput{{Title: "a1"}, {Title: "a2"}}},
			{Title: "B"},
		},
	}
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("want code=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}

func TestCourseCreatePersistsTreeAndLessonCount(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: submittableInput()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != types.CourseStatusDraft || c.Version != 1 {
		t.Fatalf("unexpected status/version: %s/%d", c.Status, c.Version)
	}
	if c.LessonCount != 2 {
		t.Fatalf("lesson count: want=2 got=%d", c.LessonCount)
	}

	stored, err := f.repo.GetTree(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if stored.LessonCount != 2 || len(stored.Modules) != 2 {
		t.Fatalf("stored course mismatch: count=%d modules=%d", stored.LessonCount, len(stored.Modules))
	}
	if stored.Modules[0].Position != 1 || stored.Modules[1].Position != 2 {
		t.Fatalf("module positions: %d %d", stored.Modules[0].Position, stored.Modules[1].Position)
	}
	if len(f.hooks.Operations) != 1 || f.hooks.Operations[0].Status != "success" {
		t.Fatalf("hooks: %+v", f.hooks.Operations)
	}
}

func TestCourseCreateRejectsUnknownTutor(t *testing.T) {
	f := newCourseFixture(t)
	ghost := authoring.Identity{UserID: uuid.New(), Role: types.RoleTutor}

	_, err := f.agg.Create(context.Background(), aggregates.CreateCourseInput{Actor: ghost})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestCourseCreateRejectsNonTutor(t *testing.T) {
	f := newCourseFixture(t)
	_, err := f.agg.Create(context.Background(), aggregates.CreateCourseInput{Actor: f.admin})
	requireCode(t, err, domainagg.CodeForbidden)
}

func TestCourseUpdateRebuildLeavesNoOrphans(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: authoring.CourseInput{
		Modules: []authoring.ModuleInput{{Lessons: []authoring.LessonInput{{
			Resources: []authoring.ResourceInput{{Title: "r"}},
			Exercises: []authoring.ExerciseInput{{Questions: []authoring.QuestionInput{{
				Options: []authoring.OptionInput{{Content: "x"}, {Content: "y"}},
			}}}},
		}}}},
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := f.agg.Update(ctx, aggregates.UpdateCourseInput{
		Actor:    f.tutor,
		CourseID: c.ID,
		Course: authoring.CourseInput{Modules: []authoring.ModuleInput{
			{Title: "only", Lessons: []authoring.LessonInput{{Title: "1"}, {Title: "2"}, {Title: "3"}}},
		}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Course.LessonCount != 3 || res.Course.Version != 2 {
		t.Fatalf("after update: count=%d version=%d", res.Course.LessonCount, res.Course.Version)
	}

	counts, err := f.tree.CountNodes(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	want := courserepo.TreeCounts{Modules: 1, Lessons: 3}
	if counts != want {
		t.Fatalf("tree counts: want=%+v got=%+v", want, counts)
	}
	var orphanOptions int64
	if err := f.db.Model(&types.Option{}).Count(&orphanOptions).Error; err != nil {
		t.Fatalf("count options: %v", err)
	}
	if orphanOptions != 0 {
		t.Fatalf("orphan options left behind: %d", orphanOptions)
	}
}

func TestCourseUpdateWithoutModulesKeepsTree(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: submittableInput()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := f.agg.Update(ctx, aggregates.UpdateCourseInput{
		Actor: f.tutor, CourseID: c.ID,
		Course: authoring.CourseInput{Title: ptr("Renamed")},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Course.Title != "Renamed" || res.Course.LessonCount != 2 || len(res.Course.Modules) != 2 {
		t.Fatalf("unexpected course after partial update: %+v", res.Course)
	}
	if res.Course.Modules[0].ID != c.Modules[0].ID {
		t.Fatalf("module ids should be untouched without a modules payload")
	}
}

func TestCourseUpdateForbiddenForOtherTutor(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stranger := testutil.SeedUser(t, ctx, f.db, types.RoleTutor)
	other := authoring.Identity{UserID: stranger.ID, Role: types.RoleTutor}

	_, err = f.agg.Update(ctx, aggregates.UpdateCourseInput{Actor: other, CourseID: c.ID, Course: authoring.CourseInput{Title: ptr("x")}})
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.agg.Delete(ctx, aggregates.DeleteCourseInput{Actor: other, CourseID: c.ID})
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: other, CourseID: c.ID})
	requireCode(t, err, domainagg.CodeForbidden)
}

func TestCourseUpdateUnknownCourseIsNotFound(t *testing.T) {
	f := newCourseFixture(t)
	_, err := f.agg.Update(context.Background(), aggregates.UpdateCourseInput{Actor: f.tutor, CourseID: uuid.New()})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestCourseUpdateStaleVersionConflicts(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.agg.Update(ctx, aggregates.UpdateCourseInput{Actor: f.tutor, CourseID: c.ID, ExpectedVersion: ptr(1), Course: authoring.CourseInput{Title: ptr("v2")}}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err = f.agg.Update(ctx, aggregates.UpdateCourseInput{Actor: f.tutor, CourseID: c.ID, ExpectedVersion: ptr(1), Course: authoring.CourseInput{Title: ptr("lost")}})
	requireCode(t, err, domainagg.CodeConflict)
	if len(f.hooks.Conflicts) != 1 {
		t.Fatalf("conflict hook: %+v", f.hooks.Conflicts)
	}
}

func TestCourseSubmitReportsEveryReason(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID})
	requireCode(t, err, domainagg.CodeValidation)
	if got := domainagg.ReasonsOf(err); len(got) != 6 {
		t.Fatalf("want 6 reasons, got=%v", got)
	}

	stored, err := f.repo.GetByID(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != types.CourseStatusDraft {
		t.Fatalf("failed submission must not change status, got=%s", stored.Status)
	}
}

func TestCourseSubmitMissingPrice(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	in := submittableInput()
	in.Price = nil
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: in})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID})
	reasons := domainagg.ReasonsOf(err)
	if len(reasons) != 1 || reasons[0] != authoring.ReasonPriceRequired {
		t.Fatalf("want only price reason, got=%v", reasons)
	}
	if domainagg.MessageOf(err) != "Cannot submit course: Course price is required" {
		t.Fatalf("unexpected message: %q", domainagg.MessageOf(err))
	}
}

func TestCourseLifecycleApproveThenFreeze(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: submittableInput()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	submitted, err := f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != types.CourseStatusPendingApproval {
		t.Fatalf("status after submit: %s", submitted.Status)
	}

	_, err = f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID})
	requireCode(t, err, domainagg.CodeInvalidState)

	_, err = f.agg.Update(ctx, aggregates.UpdateCourseInput{Actor: f.tutor, CourseID: c.ID, Course: authoring.CourseInput{Title: ptr("sneaky")}})
	requireCode(t, err, domainagg.CodeInvalidState)

	_, err = f.agg.Decide(ctx, aggregates.DecideCourseInput{Actor: f.tutor, CourseID: c.ID, Decision: types.CourseStatusApproved})
	requireCode(t, err, domainagg.CodeForbidden)

	decided, err := f.agg.Decide(ctx, aggregates.DecideCourseInput{Actor: f.admin, CourseID: c.ID, Decision: types.CourseStatusApproved, Reason: " looks good "})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Course.Status != types.CourseStatusApproved {
		t.Fatalf("status after approve: %s", decided.Course.Status)
	}
	if decided.Review.Reason != "looks good" || decided.Review.FromStatus != types.CourseStatusPendingApproval {
		t.Fatalf("unexpected review: %+v", decided.Review)
	}

	_, err = f.agg.Decide(ctx, aggregates.DecideCourseInput{Actor: f.admin, CourseID: c.ID, Decision: types.CourseStatusRejected})
	requireCode(t, err, domainagg.CodeInvalidState)

	_, err = f.agg.Delete(ctx, aggregates.DeleteCourseInput{Actor: f.tutor, CourseID: c.ID})
	requireCode(t, err, domainagg.CodeInvalidState)

	if _, err := f.agg.Delete(ctx, aggregates.DeleteCourseInput{Actor: f.admin, CourseID: c.ID}); err != nil {
		t.Fatalf("admin delete of approved course: %v", err)
	}
	gone, err := f.repo.GetByID(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Fatalf("course should be gone")
	}
	counts, err := f.tree.CountNodes(ctx, nil, c.ID)
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if counts != (courserepo.TreeCounts{}) {
		t.Fatalf("tree should be gone, got=%+v", counts)
	}
}

func TestCourseRejectedCanBeEditedAndResubmitted(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: submittableInput()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.agg.Decide(ctx, aggregates.DecideCourseInput{Actor: f.admin, CourseID: c.ID, Decision: types.CourseStatusRejected, Reason: "add audio"}); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if _, err := f.agg.Update(ctx, aggregates.UpdateCourseInput{Actor: f.tutor, CourseID: c.ID, Course: authoring.CourseInput{CourseContent: ptr("now with audio")}}); err != nil {
		t.Fatalf("Update rejected course: %v", err)
	}
	again, err := f.agg.Submit(ctx, aggregates.SubmitCourseInput{Actor: f.tutor, CourseID: c.ID})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Status != types.CourseStatusPendingApproval {
		t.Fatalf("status after resubmit: %s", again.Status)
	}
}

func TestCourseDecideInvalidDecision(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor, Course: submittableInput()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.agg.Decide(ctx, aggregates.DecideCourseInput{Actor: f.admin, CourseID: c.ID, Decision: types.CourseStatusDraft})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestCourseSetThumbnail(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c, err := f.agg.Create(ctx, aggregates.CreateCourseInput{Actor: f.tutor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := f.agg.SetThumbnail(ctx, aggregates.SetThumbnailInput{Actor: f.tutor, CourseID: c.ID, URL: "https://cdn/a.png", Key: "thumbnails/a.png"})
	if err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}
	if first.PreviousKey != "" || first.Course.ThumbnailKey != "thumbnails/a.png" {
		t.Fatalf("first thumbnail: %+v", first)
	}
	second, err := f.agg.SetThumbnail(ctx, aggregates.SetThumbnailInput{Actor: f.tutor, CourseID: c.ID, URL: "https://cdn/b.png", Key: "thumbnails/b.png"})
	if err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}
	if second.PreviousKey != "thumbnails/a.png" || second.Course.Version != 3 {
		t.Fatalf("second thumbnail: prev=%q version=%d", second.PreviousKey, second.Course.Version)
	}
}

func TestCourseAggregateRollsBackOnRunnerFailure(t *testing.T) {
	f := newCourseFixture(t)
	runner := &aggtestutil.InjectedTxRunner{FailCommit: errors.New("commit lost")}
	log := testutil.Logger(t)
	agg := aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base:    aggregates.BaseDeps{DB: f.db, Log: log, Runner: runner},
		Courses: f.repo,
		Tree:    f.tree,
		Reviews: courserepo.NewCourseReviewRepo(f.db, log),
		Users:   userrepo.NewUserRepo(f.db, log),
		Now:     func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	})

	_, err := agg.Create(context.Background(), aggregates.CreateCourseInput{Actor: f.tutor})
	requireCode(t, err, domainagg.CodeInternal)
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("runner counters: commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
}

func TestCourseAggregateBoundaryCoversTree(t *testing.T) {
	f := newCourseFixture(t)
	b := f.agg.Boundary()
	for _, table := range []string{
		types.Course{}.TableName(),
		types.Lesson{}.TableName(),
		types.Option{}.TableName(),
		types.CourseReview{}.TableName(),
	} {
		if !b.Owns(table) {
			t.Fatalf("boundary %s should own %s", b.Name, table)
		}
	}
	if b.Owns(types.User{}.TableName()) {
		t.Fatalf("users are outside the course boundary")
	}
}
