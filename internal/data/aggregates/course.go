package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

type CreateCourseInput struct {
	Actor  authoring.Identity
	Course authoring.CourseInput
}

type UpdateCourseInput struct {
	Actor           authoring.Identity
	CourseID        uuid.UUID
	ExpectedVersion *int
	Course          authoring.CourseInput
}

type UpdateCourseResult struct {
	Course *types.Course
	// ReleasedThumbnailKey is the bucket key that the course stopped pointing at.
	ReleasedThumbnailKey string
}

type DeleteCourseInput struct {
	Actor           authoring.Identity
	CourseID        uuid.UUID
	ExpectedVersion *int
}

type DeleteCourseResult struct {
	CourseID     uuid.UUID
	ThumbnailKey string
}

type SubmitCourseInput struct {
	Actor           authoring.Identity
	CourseID        uuid.UUID
	ExpectedVersion *int
}

type DecideCourseInput struct {
	Actor    authoring.Identity
	CourseID uuid.UUID
	Decision types.CourseStatus
	Reason   string
}

type DecideCourseResult struct {
	Course *types.Course
	Review *types.CourseReview
}

type SetThumbnailInput struct {
	Actor    authoring.Identity
	CourseID uuid.UUID
	URL      string
	Key      string
}

type SetThumbnailResult struct {
	Course      *types.Course
	PreviousKey string
}

// CourseAggregate owns every write to a course row and its module tree.
type CourseAggregate interface {
	domainagg.Aggregate
	Create(ctx context.Context, in CreateCourseInput) (*types.Course, error)
	Update(ctx context.Context, in UpdateCourseInput) (UpdateCourseResult, error)
	Delete(ctx context.Context, in DeleteCourseInput) (DeleteCourseResult, error)
	Submit(ctx context.Context, in SubmitCourseInput) (*types.Course, error)
	Decide(ctx context.Context, in DecideCourseInput) (DecideCourseResult, error)
	SetThumbnail(ctx context.Context, in SetThumbnailInput) (SetThumbnailResult, error)
}

type CourseAggregateDeps struct {
	Base BaseDeps

	Courses courserepo.CourseRepo
	Tree    courserepo.TreeRepo
	Reviews courserepo.CourseReviewRepo
	Users   userrepo.UserRepo

	Now func() time.Time
}

type courseAggregate struct {
	deps CourseAggregateDeps
}

func NewCourseAggregate(deps CourseAggregateDeps) CourseAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &courseAggregate{deps: deps}
}

func (a *courseAggregate) Boundary() domainagg.Boundary {
	return domainagg.CourseBoundary
}

func (a *courseAggregate) Create(ctx context.Context, in CreateCourseInput) (*types.Course, error) {
	const op = "Course.Create"
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionCreate); err != nil {
		return nil, err
	}
	if err := requireValidInput(op, in.Course); err != nil {
		return nil, err
	}
	if err := a.requireRepos(op); err != nil {
		return nil, err
	}

	var out *types.Course
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		tutor, err := a.deps.Users.GetByID(dbc.Ctx, dbc.Tx, in.Actor.UserID)
		if err != nil {
			return err
		}
		if tutor == nil || tutor.Role != types.RoleTutor {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("Tutor not found with id: %s", in.Actor.UserID), nil)
		}

		c := authoring.NewCourse(tutor.ID, in.Course, a.deps.Now())
		c.Version = 1
		if err := a.deps.Courses.Create(dbc.Ctx, dbc.Tx, c); err != nil {
			return err
		}
		if err := a.attachTree(dbc, c, true); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (a *courseAggregate) Update(ctx context.Context, in UpdateCourseInput) (UpdateCourseResult, error) {
	const op = "Course.Update"
	var out UpdateCourseResult
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionUpdate); err != nil {
		return out, err
	}
	if err := requireValidInput(op, in.Course); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lockCourse(dbc, op, in.CourseID)
		if err != nil {
			return err
		}
		if err := authoring.Authorize(op, authoring.ActionUpdate, c, in.Actor); err != nil {
			return err
		}
		if err := requireExpectedVersion(op, in.ExpectedVersion, c.Version); err != nil {
			return err
		}
		if err := authoring.RequireEditable(op, c.Status); err != nil {
			return err
		}
		if err := a.deps.Courses.LoadTree(dbc.Ctx, dbc.Tx, c); err != nil {
			return err
		}

		prevURL, prevKey := c.ThumbnailURL, c.ThumbnailKey
		replaced := authoring.Rebuild(c, in.Course, a.deps.Now())
		if c.ThumbnailURL != prevURL {
			c.ThumbnailKey = ""
			out.ReleasedThumbnailKey = prevKey
		}
		if err := a.attachTree(dbc, c, replaced); err != nil {
			return err
		}
		if err := a.commitFields(dbc, c); err != nil {
			return err
		}
		out.Course = c
		return nil
	})
	if err != nil {
		return UpdateCourseResult{}, err
	}
	return out, nil
}

func (a *courseAggregate) Delete(ctx context.Context, in DeleteCourseInput) (DeleteCourseResult, error) {
	const op = "Course.Delete"
	var out DeleteCourseResult
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionDelete); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lockCourse(dbc, op, in.CourseID)
		if err != nil {
			return err
		}
		if err := authoring.Authorize(op, authoring.ActionDelete, c, in.Actor); err != nil {
			return err
		}
		if err := requireExpectedVersion(op, in.ExpectedVersion, c.Version); err != nil {
			return err
		}
		if err := authoring.RequireDeletable(op, c.Status, in.Actor); err != nil {
			return err
		}
		if err := a.deps.Tree.PurgeByCourseID(dbc.Ctx, dbc.Tx, c.ID); err != nil {
			return err
		}
		if err := a.deps.Reviews.DeleteByCourseID(dbc.Ctx, dbc.Tx, c.ID); err != nil {
			return err
		}
		n, err := a.deps.Courses.DeleteByID(dbc.Ctx, dbc.Tx, c.ID)
		if err != nil {
			return err
		}
		if n != 1 {
			return ConflictError("course was deleted concurrently")
		}
		out = DeleteCourseResult{CourseID: c.ID, ThumbnailKey: c.ThumbnailKey}
		return nil
	})
	if err != nil {
		return DeleteCourseResult{}, err
	}
	return out, nil
}

func (a *courseAggregate) Submit(ctx context.Context, in SubmitCourseInput) (*types.Course, error) {
	const op = "Course.Submit"
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionSubmit); err != nil {
		return nil, err
	}
	if err := a.requireRepos(op); err != nil {
		return nil, err
	}

	var out *types.Course
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lockCourse(dbc, op, in.CourseID)
		if err != nil {
			return err
		}
		if err := authoring.Authorize(op, authoring.ActionSubmit, c, in.Actor); err != nil {
			return err
		}
		if err := requireExpectedVersion(op, in.ExpectedVersion, c.Version); err != nil {
			return err
		}
		if err := authoring.RequireSubmittable(op, c.Status); err != nil {
			return err
		}
		if err := a.deps.Courses.LoadTree(dbc.Ctx, dbc.Tx, c); err != nil {
			return err
		}
		if err := authoring.SubmissionError(op, authoring.ValidateForSubmission(c)); err != nil {
			return err
		}

		if err := a.deps.Base.Guard.Transition(dbc, c, types.CourseStatusPendingApproval, true, a.deps.Now()); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (a *courseAggregate) Decide(ctx context.Context, in DecideCourseInput) (DecideCourseResult, error) {
	const op = "Course.Decide"
	var out DecideCourseResult
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionDecide); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lockCourse(dbc, op, in.CourseID)
		if err != nil {
			return err
		}
		if err := authoring.Authorize(op, authoring.ActionDecide, c, in.Actor); err != nil {
			return err
		}
		if err := authoring.RequireDecision(op, c.Status, in.Decision); err != nil {
			return err
		}

		now := a.deps.Now()
		from := c.Status
		if err := a.deps.Base.Guard.Transition(dbc, c, in.Decision, false, now); err != nil {
			return err
		}

		details, err := json.Marshal(map[string]any{
			"title":        c.Title,
			"lesson_count": c.LessonCount,
			"version":      c.Version,
		})
		if err != nil {
			return err
		}
		review := &types.CourseReview{
			CourseID:   c.ID,
			AdminID:    in.Actor.UserID,
			Decision:   in.Decision,
			Reason:     strings.TrimSpace(in.Reason),
			Details:    datatypes.JSON(details),
			FromStatus: from,
			CreatedAt:  now,
		}
		if err := a.deps.Reviews.Create(dbc.Ctx, dbc.Tx, review); err != nil {
			return err
		}
		if err := a.deps.Courses.LoadTree(dbc.Ctx, dbc.Tx, c); err != nil {
			return err
		}
		out = DecideCourseResult{Course: c, Review: review}
		return nil
	})
	if err != nil {
		return DecideCourseResult{}, err
	}
	return out, nil
}

func (a *courseAggregate) SetThumbnail(ctx context.Context, in SetThumbnailInput) (SetThumbnailResult, error) {
	const op = "Course.SetThumbnail"
	var out SetThumbnailResult
	if err := authoring.RequireCapability(op, in.Actor, authoring.ActionUploadThumbnail); err != nil {
		return out, err
	}
	if strings.TrimSpace(in.URL) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "thumbnail url is required", nil)
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lockCourse(dbc, op, in.CourseID)
		if err != nil {
			return err
		}
		if err := authoring.Authorize(op, authoring.ActionUploadThumbnail, c, in.Actor); err != nil {
			return err
		}
		if err := authoring.RequireEditable(op, c.Status); err != nil {
			return err
		}
		if err := a.deps.Courses.LoadTree(dbc.Ctx, dbc.Tx, c); err != nil {
			return err
		}
		out.PreviousKey = c.ThumbnailKey
		c.ThumbnailURL = strings.TrimSpace(in.URL)
		c.ThumbnailKey = strings.TrimSpace(in.Key)
		c.UpdatedAt = a.deps.Now()
		if err := a.commitFields(dbc, c); err != nil {
			return err
		}
		out.Course = c
		return nil
	})
	if err != nil {
		return SetThumbnailResult{}, err
	}
	return out, nil
}

func (a *courseAggregate) requireRepos(op string) error {
	if a.deps.Courses == nil || a.deps.Tree == nil || a.deps.Reviews == nil || a.deps.Users == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "course aggregate repos not configured", nil)
	}
	return nil
}

func (a *courseAggregate) lockCourse(dbc dbctx.Context, op string, id uuid.UUID) (*types.Course, error) {
	c, err := a.deps.Courses.LockByID(dbc.Ctx, dbc.Tx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("Course not found with id: %s", id), nil)
	}
	return c, nil
}

// attachTree checks the in-memory tree and, when it was rebuilt, replaces the
// persisted subtree with it.
func (a *courseAggregate) attachTree(dbc dbctx.Context, c *types.Course, replaced bool) error {
	if err := authoring.CheckTree(c); err != nil {
		return InvariantError(err.Error())
	}
	if !replaced {
		return nil
	}
	if err := a.deps.Tree.PurgeByCourseID(dbc.Ctx, dbc.Tx, c.ID); err != nil {
		return err
	}
	return a.deps.Tree.Insert(dbc.Ctx, dbc.Tx, c.Modules)
}

// commitFields writes the scalar columns of c and bumps its version.
func (a *courseAggregate) commitFields(dbc dbctx.Context, c *types.Course) error {
	updates := map[string]any{
		"title":                c.Title,
		"description":          c.Description,
		"duration_in_minutes":  c.DurationInMinutes,
		"level":                c.Level,
		"price":                c.Price,
		"course_overview":      c.CourseOverview,
		"course_content":       c.CourseContent,
		"includes_description": c.IncludesDescription,
		"thumbnail_url":        c.ThumbnailURL,
		"thumbnail_key":        c.ThumbnailKey,
		"lesson_count":         c.LessonCount,
		"updated_at":           c.UpdatedAt,
	}
	return a.deps.Base.Guard.SaveAt(dbc, c, updates)
}

func requireValidInput(op string, in authoring.CourseInput) error {
	reasons := in.Validate()
	if len(reasons) == 0 {
		return nil
	}
	return domainagg.NewValidationError(op, "Invalid course payload: "+strings.Join(reasons, ", "), reasons)
}

func requireExpectedVersion(op string, expected *int, current int) error {
	if expected == nil {
		return nil
	}
	if *expected < 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "expected version must not be negative", nil)
	}
	if current != *expected {
		return domainagg.NewError(domainagg.CodeConflict, op,
			fmt.Sprintf("Course is at version %d, expected %d", current, *expected), nil)
	}
	return nil
}
