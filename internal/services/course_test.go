package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
)

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("want code=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}

func TestGetHidesUnapprovedCoursesFromOthers(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, f.tutor, completeInput("Draft Course"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Get(ctx, f.tutor, draft.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.admin, draft.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	_, err = f.svc.Get(ctx, f.stranger, draft.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.svc.Get(ctx, authoring.Identity{}, draft.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	if f.cache.sets != 0 {
		t.Fatalf("drafts must not be cached, sets=%d", f.cache.sets)
	}

	_, err = f.svc.Get(ctx, f.tutor, uuid.New())
	requireCode(t, err, domainagg.CodeNotFound)
	if !strings.HasPrefix(domainagg.MessageOf(err), "Course not found with id: ") {
		t.Fatalf("unexpected message: %q", domainagg.MessageOf(err))
	}
}

func TestGetApprovedIsPublicAndCached(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	c := f.approvedCourse(t, "Kanji in Context")

	got, err := f.svc.Get(ctx, authoring.Identity{}, c.ID)
	if err != nil {
		t.Fatalf("anonymous Get: %v", err)
	}
	if len(got.Modules) != 1 || len(got.Modules[0].Lessons) != 1 {
		t.Fatalf("expected full tree, got %d modules", len(got.Modules))
	}
	if f.cache.sets != 1 {
		t.Fatalf("approved course should be cached once, sets=%d", f.cache.sets)
	}
	if _, err := f.svc.Get(ctx, f.stranger, c.ID); err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if f.cache.sets != 1 {
		t.Fatalf("second read should hit the cache, sets=%d", f.cache.sets)
	}

	if err := f.svc.Delete(ctx, f.admin, c.ID, nil); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	_, err = f.svc.Get(ctx, authoring.Identity{}, c.ID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestDecideApprovalNotifiesTutor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, f.tutor, completeInput("Grammar Drills"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SubmitForApproval(ctx, f.tutor, c.ID, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	f.notifier.err = errBoom
	rejected, err := f.svc.DecideApproval(ctx, f.admin, c.ID, types.CourseStatusRejected, "Needs audio")
	if err != nil {
		t.Fatalf("notification failures must not fail the decision: %v", err)
	}
	if rejected.Status != types.CourseStatusRejected {
		t.Fatalf("status: want=REJECTED got=%s", rejected.Status)
	}
	if len(f.notifier.reviews) != 1 || f.notifier.reviews[0].Reason != "Needs audio" {
		t.Fatalf("notifier reviews: %+v", f.notifier.reviews)
	}
	if len(f.cache.invalidated) == 0 || f.cache.invalidated[len(f.cache.invalidated)-1] != c.ID {
		t.Fatalf("decision should invalidate the cache entry")
	}

	_, err = f.svc.DecideApproval(ctx, f.tutor, c.ID, types.CourseStatusApproved, "")
	requireCode(t, err, domainagg.CodeForbidden)
}

func TestListByTutor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := f.svc.Create(ctx, f.tutor, completeInput(title)); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}
	if _, err := f.svc.Create(ctx, f.stranger, completeInput("Other")); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	page, err := f.svc.ListByTutor(ctx, f.tutor.UserID, PageRequest{Limit: 2})
	if err != nil {
		t.Fatalf("ListByTutor: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.Limit != 2 {
		t.Fatalf("page: total=%d items=%d limit=%d", page.Total, len(page.Items), page.Limit)
	}
	for _, c := range page.Items {
		if c.TutorID != f.tutor.UserID {
			t.Fatalf("foreign course in tutor list: %s", c.ID)
		}
	}

	_, err = f.svc.ListByTutor(ctx, uuid.New(), PageRequest{})
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.svc.ListByTutor(ctx, f.admin.UserID, PageRequest{})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestSearchByTitleOnlyMatchesApproved(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.approvedCourse(t, "Business Japanese")
	if _, err := f.svc.Create(ctx, f.tutor, completeInput("Japanese Drafts")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := f.svc.SearchByTitle(ctx, "  JAPANESE ", PageRequest{})
	if err != nil {
		t.Fatalf("SearchByTitle: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "Business Japanese" {
		t.Fatalf("search results: total=%d items=%+v", page.Total, page.Items)
	}

	approved, err := f.svc.ListApproved(ctx, PageRequest{})
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if approved.Total != 1 {
		t.Fatalf("approved total: want=1 got=%d", approved.Total)
	}
}

func TestListPendingApprovalRequiresAdmin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, f.tutor, completeInput("Pending"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SubmitForApproval(ctx, f.tutor, c.ID, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = f.svc.ListPendingApproval(ctx, f.tutor, PageRequest{})
	requireCode(t, err, domainagg.CodeForbidden)

	page, err := f.svc.ListPendingApproval(ctx, f.admin, PageRequest{Limit: 500})
	if err != nil {
		t.Fatalf("ListPendingApproval: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != c.ID {
		t.Fatalf("pending page: %+v", page)
	}
	if page.Limit != maxPageSize {
		t.Fatalf("limit should be clamped, got=%d", page.Limit)
	}

	_, err = f.svc.ListByStatus(ctx, types.CourseStatus("ARCHIVED"), PageRequest{})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestListReviewsOwnerAndAdminOnly(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	c := f.approvedCourse(t, "Reviewed")

	reviews, err := f.svc.ListReviews(ctx, f.tutor, c.ID)
	if err != nil {
		t.Fatalf("owner ListReviews: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Decision != types.CourseStatusApproved {
		t.Fatalf("reviews: %+v", reviews)
	}
	if _, err := f.svc.ListReviews(ctx, f.admin, c.ID); err != nil {
		t.Fatalf("admin ListReviews: %v", err)
	}
	_, err = f.svc.ListReviews(ctx, f.stranger, c.ID)
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.svc.ListReviews(ctx, f.admin, uuid.New())
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestUpdateAndDeleteReleaseThumbnails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, f.tutor, completeInput("Media"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	withThumb, err := f.thumbs.Upload(ctx, f.tutor, c.ID, pngFile(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(f.bucket.objects) != 1 {
		t.Fatalf("bucket objects: want=1 got=%d", len(f.bucket.objects))
	}

	external := "https://images.example.com/cover.jpg"
	updated, err := f.svc.Update(ctx, f.tutor, c.ID, authoring.CourseInput{ThumbnailURL: &external}, ptr(withThumb.Version))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ThumbnailURL != external || updated.ThumbnailKey != "" {
		t.Fatalf("thumbnail fields: url=%q key=%q", updated.ThumbnailURL, updated.ThumbnailKey)
	}
	if len(f.bucket.objects) != 0 {
		t.Fatalf("replaced upload should be deleted, left=%d", len(f.bucket.objects))
	}

	_, err = f.svc.Update(ctx, f.tutor, c.ID, authoring.CourseInput{Title: ptr("Stale")}, ptr(withThumb.Version))
	requireCode(t, err, domainagg.CodeConflict)

	if _, err := f.thumbs.Upload(ctx, f.tutor, c.ID, pngFile(t)); err != nil {
		t.Fatalf("second Upload: %v", err)
	}
	if err := f.svc.Delete(ctx, f.tutor, c.ID, nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.bucket.objects) != 0 {
		t.Fatalf("delete should release the thumbnail, left=%d", len(f.bucket.objects))
	}
}
