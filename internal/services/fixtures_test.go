package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
)

type fakeBucket struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	failWrite error
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: map[string][]byte{}} }

func (b *fakeBucket) UploadFile(_ dbctx.Context, _ gcp.BucketCategory, key string, file io.Reader) error {
	if b.failWrite != nil {
		return b.failWrite
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = raw
	return nil
}

func (b *fakeBucket) DeleteFile(_ dbctx.Context, _ gcp.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBucket) GetPublicURL(_ gcp.BucketCategory, key string) string {
	return "https://cdn.test/" + key
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*types.Course
	sets        int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[uuid.UUID]*types.Course{}} }

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) (*types.Course, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[id]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, course *types.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[course.ID] = course
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ids ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	reviews []*types.CourseReview
	err     error
}

func (n *recordingNotifier) NotifyDecision(_ context.Context, _ *types.Course, review *types.CourseReview) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviews = append(n.reviews, review)
	return n.err
}

type serviceFixture struct {
	db        *gorm.DB
	courses   courserepo.CourseRepo
	users     userrepo.UserRepo
	aggregate aggregates.CourseAggregate
	bucket    *fakeBucket
	cache     *fakeCache
	notifier  *recordingNotifier
	svc       CourseService
	thumbs    ThumbnailService

	tutor    authoring.Identity
	stranger authoring.Identity
	admin    authoring.Identity
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, types.RoleTutor)
	stranger := testutil.SeedUser(t, ctx, db, types.RoleTutor)
	admin := testutil.SeedUser(t, ctx, db, types.RoleAdmin)

	f := &serviceFixture{
		db:       db,
		courses:  courserepo.NewCourseRepo(db, log),
		users:    userrepo.NewUserRepo(db, log),
		bucket:   newFakeBucket(),
		cache:    newFakeCache(),
		notifier: &recordingNotifier{},
		tutor:    authoring.Identity{UserID: tutor.ID, Role: types.RoleTutor},
		stranger: authoring.Identity{UserID: stranger.ID, Role: types.RoleTutor},
		admin:    authoring.Identity{UserID: admin.ID, Role: types.RoleAdmin},
	}
	reviews := courserepo.NewCourseReviewRepo(db, log)
	f.aggregate = aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base:    aggregates.BaseDeps{DB: db, Log: log},
		Courses: f.courses,
		Tree:    courserepo.NewTreeRepo(db, log),
		Reviews: reviews,
		Users:   f.users,
	})
	f.svc = NewCourseService(CourseServiceDeps{
		Log:       log,
		Courses:   f.courses,
		Reviews:   reviews,
		Users:     f.users,
		Aggregate: f.aggregate,
		Cache:     f.cache,
		Bucket:    f.bucket,
		Notifier:  f.notifier,
		Dispatch:  func(fn func()) { fn() },
	})
	thumbs, err := NewThumbnailService(ThumbnailServiceDeps{
		Log:       log,
		Courses:   f.courses,
		Aggregate: f.aggregate,
		Bucket:    f.bucket,
	})
	if err != nil {
		t.Fatalf("NewThumbnailService: %v", err)
	}
	f.thumbs = thumbs
	return f
}

func ptr[T any](v T) *T { return &v }

func completeInput(title string) authoring.CourseInput {
	return authoring.CourseInput{
		Title:       ptr(title),
		Description: ptr("A complete course"),
		Level:       ptr(types.CourseLevel("BEGINNER")),
		Price:       ptr(19.0),
		Modules: []authoring.ModuleInput{
			{Title: "Intro", Lessons: []authoring.LessonInput{{Title: "Hello"}}},
		},
	}
}

// approvedCourse walks a course through create, submit and approve.
func (f *serviceFixture) approvedCourse(t *testing.T, title string) *types.Course {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.Create(ctx, f.tutor, completeInput(title))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SubmitForApproval(ctx, f.tutor, c.ID, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	approved, err := f.svc.DecideApproval(ctx, f.admin, c.ID, types.CourseStatusApproved, "")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	return approved
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func pngFile(t *testing.T) ThumbnailFile {
	raw := pngBytes(t, 32, 16)
	return ThumbnailFile{
		Filename:    "thumb.png",
		ContentType: "image/png",
		Size:        int64(len(raw)),
		Body:        bytes.NewReader(raw),
	}
}

var errBoom = fmt.Errorf("boom")
