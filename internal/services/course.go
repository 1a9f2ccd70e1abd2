package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/rediscache"
)

type CourseService interface {
	Create(ctx context.Context, actor authoring.Identity, in authoring.CourseInput) (*types.Course, error)
	// Get returns the full tree. Courses that are not APPROVED are only
	// visible to their tutor and to admins; everyone else gets NotFound.
	Get(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) (*types.Course, error)
	Update(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, in authoring.CourseInput, expectedVersion *int) (*types.Course, error)
	Delete(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, expectedVersion *int) error
	SubmitForApproval(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, expectedVersion *int) (*types.Course, error)
	DecideApproval(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, decision types.CourseStatus, reason string) (*types.Course, error)

	ListByTutor(ctx context.Context, tutorID uuid.UUID, page PageRequest) (Page[*types.Course], error)
	ListByStatus(ctx context.Context, status types.CourseStatus, page PageRequest) (Page[*types.Course], error)
	ListApproved(ctx context.Context, page PageRequest) (Page[*types.Course], error)
	ListPendingApproval(ctx context.Context, actor authoring.Identity, page PageRequest) (Page[*types.Course], error)
	SearchByTitle(ctx context.Context, title string, page PageRequest) (Page[*types.Course], error)
	ListReviews(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) ([]*types.CourseReview, error)
}

type CourseServiceDeps struct {
	Log       *logger.Logger
	Courses   courserepo.CourseRepo
	Reviews   courserepo.CourseReviewRepo
	Users     userrepo.UserRepo
	Aggregate aggregates.CourseAggregate
	Cache     rediscache.CourseCache
	Bucket    gcp.BucketService
	Notifier  ReviewNotifier
	Metrics   *observability.Metrics

	// Dispatch runs post-commit side effects. Defaults to a new goroutine.
	Dispatch func(func())
}

type courseService struct {
	log       *logger.Logger
	courses   courserepo.CourseRepo
	reviews   courserepo.CourseReviewRepo
	users     userrepo.UserRepo
	aggregate aggregates.CourseAggregate
	cache     rediscache.CourseCache
	bucket    gcp.BucketService
	notifier  ReviewNotifier
	metrics   *observability.Metrics
	dispatch  func(func())

	loads singleflight.Group
	// gens counts cache invalidations per course so a read that started
	// before a write cannot leave the old tree cached.
	gens sync.Map
}

func NewCourseService(deps CourseServiceDeps) CourseService {
	cache := deps.Cache
	if cache == nil {
		cache = rediscache.NopCourseCache{}
	}
	dispatch := deps.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { go fn() }
	}
	return &courseService{
		log:       deps.Log.With("service", "CourseService"),
		courses:   deps.Courses,
		reviews:   deps.Reviews,
		users:     deps.Users,
		aggregate: deps.Aggregate,
		cache:     cache,
		bucket:    deps.Bucket,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		dispatch:  dispatch,
	}
}

func (s *courseService) Create(ctx context.Context, actor authoring.Identity, in authoring.CourseInput) (*types.Course, error) {
	course, err := s.aggregate.Create(ctx, aggregates.CreateCourseInput{Actor: actor, Course: in})
	if err != nil {
		return nil, err
	}
	s.log.Ctx(ctx).Info("course created", "course_id", course.ID, "tutor_id", actor.UserID, "lesson_count", course.LessonCount)
	return course, nil
}

func (s *courseService) Get(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) (*types.Course, error) {
	const op = "Course.Get"
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || !visibleTo(course, actor) {
		return nil, courseNotFound(op, courseID)
	}
	return course, nil
}

func visibleTo(c *types.Course, actor authoring.Identity) bool {
	if c.Status == types.CourseStatusApproved || actor.IsAdmin() {
		return true
	}
	return actor.UserID != uuid.Nil && actor.UserID == c.TutorID
}

// loadCourse reads through the cache. Only APPROVED trees are cached since
// they are immutable until deleted. Concurrent misses share one load that is
// detached from any single caller's cancellation.
func (s *courseService) loadCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	if cached, ok, err := s.cache.Get(ctx, courseID); err != nil {
		s.log.Ctx(ctx).Warn("course cache read failed", "course_id", courseID, "error", err)
	} else if ok {
		s.metrics.IncCacheLookup("course", true)
		return cached, nil
	}
	s.metrics.IncCacheLookup("course", false)

	shared := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(courseID.String(), func() (any, error) {
		gen := s.generation(courseID)
		seen := gen.Load()
		course, err := s.courses.GetTree(shared, nil, courseID)
		if err != nil || course == nil || course.Status != types.CourseStatusApproved {
			return course, err
		}
		if gen.Load() != seen {
			return course, nil
		}
		if err := s.cache.Set(shared, course); err != nil {
			s.log.Warn("course cache write failed", "course_id", courseID, "error", err)
		}
		// A write that landed while Set was in flight has already run its
		// own invalidation, possibly before Set; repeat it.
		if gen.Load() != seen {
			s.evict(shared, courseID)
		}
		return course, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load course: %w", res.Err)
		}
		course, _ := res.Val.(*types.Course)
		return course, nil
	}
}

func (s *courseService) generation(courseID uuid.UUID) *atomic.Uint64 {
	g, _ := s.gens.LoadOrStore(courseID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

func (s *courseService) Update(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, in authoring.CourseInput, expectedVersion *int) (*types.Course, error) {
	res, err := s.aggregate.Update(ctx, aggregates.UpdateCourseInput{
		Actor:           actor,
		CourseID:        courseID,
		ExpectedVersion: expectedVersion,
		Course:          in,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, courseID)
	s.releaseThumbnail(ctx, res.ReleasedThumbnailKey)
	return res.Course, nil
}

func (s *courseService) Delete(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, expectedVersion *int) error {
	res, err := s.aggregate.Delete(ctx, aggregates.DeleteCourseInput{
		Actor:           actor,
		CourseID:        courseID,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, courseID)
	s.releaseThumbnail(ctx, res.ThumbnailKey)
	s.log.Ctx(ctx).Info("course deleted", "course_id", courseID, "actor_id", actor.UserID)
	return nil
}

func (s *courseService) SubmitForApproval(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, expectedVersion *int) (*types.Course, error) {
	course, err := s.aggregate.Submit(ctx, aggregates.SubmitCourseInput{
		Actor:           actor,
		CourseID:        courseID,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncCourseTransition(string(types.CourseStatusPendingApproval))
	s.invalidate(ctx, courseID)
	return course, nil
}

func (s *courseService) DecideApproval(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, decision types.CourseStatus, reason string) (*types.Course, error) {
	res, err := s.aggregate.Decide(ctx, aggregates.DecideCourseInput{
		Actor:    actor,
		CourseID: courseID,
		Decision: decision,
		Reason:   reason,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncCourseTransition(string(decision))
	s.invalidate(ctx, courseID)

	if s.notifier != nil {
		course, review := res.Course, res.Review
		notifyCtx := context.WithoutCancel(ctx)
		s.dispatch(func() {
			ctx, cancel := context.WithTimeout(notifyCtx, time.Minute)
			defer cancel()
			if err := s.notifier.NotifyDecision(ctx, course, review); err != nil {
				s.log.Warn("decision notification failed", "course_id", course.ID, "decision", review.Decision, "error", err)
			}
		})
	}
	return res.Course, nil
}

func (s *courseService) ListByTutor(ctx context.Context, tutorID uuid.UUID, page PageRequest) (Page[*types.Course], error) {
	const op = "Course.ListByTutor"
	tutor, err := s.users.GetByID(ctx, nil, tutorID)
	if err != nil {
		return Page[*types.Course]{}, fmt.Errorf("load tutor: %w", err)
	}
	if tutor == nil || tutor.Role != types.RoleTutor {
		return Page[*types.Course]{}, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("Tutor not found with id: %s", tutorID), nil)
	}
	return s.list(ctx, courserepo.CourseFilter{TutorID: tutorID}, page)
}

func (s *courseService) ListByStatus(ctx context.Context, status types.CourseStatus, page PageRequest) (Page[*types.Course], error) {
	if !status.Valid() {
		return Page[*types.Course]{}, domainagg.NewValidationError("Course.ListByStatus", fmt.Sprintf("Unknown course status: %s", status), nil)
	}
	return s.list(ctx, courserepo.CourseFilter{Statuses: []types.CourseStatus{status}}, page)
}

func (s *courseService) ListApproved(ctx context.Context, page PageRequest) (Page[*types.Course], error) {
	return s.ListByStatus(ctx, types.CourseStatusApproved, page)
}

func (s *courseService) ListPendingApproval(ctx context.Context, actor authoring.Identity, page PageRequest) (Page[*types.Course], error) {
	if err := authoring.RequireCapability("Course.ListPending", actor, authoring.ActionListPending); err != nil {
		return Page[*types.Course]{}, err
	}
	return s.ListByStatus(ctx, types.CourseStatusPendingApproval, page)
}

func (s *courseService) SearchByTitle(ctx context.Context, title string, page PageRequest) (Page[*types.Course], error) {
	return s.list(ctx, courserepo.CourseFilter{
		Statuses:   []types.CourseStatus{types.CourseStatusApproved},
		TitleQuery: strings.TrimSpace(title),
	}, page)
}

// list runs the count and page queries concurrently.
func (s *courseService) list(ctx context.Context, filter courserepo.CourseFilter, page PageRequest) (Page[*types.Course], error) {
	page = page.normalize()
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	var (
		items []*types.Course
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.courses.List(gctx, nil, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.courses.Count(gctx, nil, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page[*types.Course]{}, fmt.Errorf("list courses: %w", err)
	}
	if items == nil {
		items = []*types.Course{}
	}
	return Page[*types.Course]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *courseService) ListReviews(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) ([]*types.CourseReview, error) {
	const op = "Course.ListReviews"
	if err := authoring.RequireCapability(op, actor, authoring.ActionViewReviews); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, courseNotFound(op, courseID)
	}
	if err := authoring.Authorize(op, authoring.ActionViewReviews, course, actor); err != nil {
		return nil, err
	}
	return s.reviews.ListByCourseID(ctx, nil, courseID)
}

func (s *courseService) invalidate(ctx context.Context, courseID uuid.UUID) {
	s.generation(courseID).Add(1)
	s.loads.Forget(courseID.String())
	s.evict(ctx, courseID)
}

func (s *courseService) evict(ctx context.Context, courseID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, courseID); err != nil {
		s.log.Warn("course cache invalidation failed", "course_id", courseID, "error", err)
	}
}

func (s *courseService) releaseThumbnail(ctx context.Context, key string) {
	key = strings.TrimSpace(key)
	if key == "" || s.bucket == nil {
		return
	}
	if err := s.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryThumbnail, key); err != nil {
		s.log.Warn("failed to delete released thumbnail (ignored)", "key", key, "error", err)
	}
}

func courseNotFound(op string, courseID uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("Course not found with id: %s", courseID), nil)
}
