package courses

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// CourseFilter narrows course listings. Zero values are ignored.
type CourseFilter struct {
	TutorID    uuid.UUID
	Statuses   []types.CourseStatus
	TitleQuery string
	Limit      int
	Offset     int
}

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *types.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	LockByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	GetTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	LoadTree(ctx context.Context, tx *gorm.DB, course *types.Course) error
	List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*types.Course, error)
	Count(ctx context.Context, tx *gorm.DB, filter CourseFilter) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

// Create inserts the course row only. The module tree is written by TreeRepo.
func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if course == nil {
		return nil
	}
	return transaction.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

// GetByID returns nil, nil when the course does not exist.
func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Course
	err := transaction.WithContext(ctx).Where("id = ?", courseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LockByID reads the course row with a row lock on drivers that support one.
func (r *courseRepo) LockByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	if supportsRowLocks(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c types.Course
	err := q.Where("id = ?", courseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) GetTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	c, err := r.GetByID(ctx, tx, courseID)
	if err != nil || c == nil {
		return c, err
	}
	if err := r.LoadTree(ctx, tx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadTree fills course.Modules with the full tree, every level ordered by position.
func (r *courseRepo) LoadTree(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if course == nil {
		return nil
	}
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

	var modules []*types.Module
	err := transaction.WithContext(ctx).
		Where("course_id = ?", course.ID).
		Order("position ASC").
		Preload("Lessons", byPosition).
		Preload("Lessons.Resources", byPosition).
		Preload("Lessons.Exercises", byPosition).
		Preload("Lessons.Exercises.Questions", byPosition).
		Preload("Lessons.Exercises.Questions.Options", byPosition).
		Find(&modules).Error
	if err != nil {
		return err
	}
	normalizeTree(modules)
	course.Modules = modules
	return nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := applyFilter(transaction.WithContext(ctx).Model(&types.Course{}), filter).
		Order("created_at DESC").
		Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	results := []*types.Course{}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) Count(ctx context.Context, tx *gorm.DB, filter CourseFilter) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := applyFilter(transaction.WithContext(ctx).Model(&types.Course{}), filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByID removes the course row. Callers purge the tree first.
func (r *courseRepo) DeleteByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", courseID).Delete(&types.Course{})
	return res.RowsAffected, res.Error
}

func applyFilter(q *gorm.DB, filter CourseFilter) *gorm.DB {
	if filter.TutorID != uuid.Nil {
		q = q.Where("tutor_id = ?", filter.TutorID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if term := strings.TrimSpace(filter.TitleQuery); term != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func supportsRowLocks(db *gorm.DB) bool {
	if db == nil || db.Dialector == nil {
		return false
	}
	return db.Dialector.Name() == "postgres"
}

// normalizeTree replaces nil child slices with empty ones so callers and JSON
// see [] for a node without children.
func normalizeTree(modules []*types.Module) {
	for _, m := range modules {
		if m.Lessons == nil {
			m.Lessons = []*types.Lesson{}
		}
		for _, l := range m.Lessons {
			if l.Resources == nil {
				l.Resources = []*types.Resource{}
			}
			if l.Exercises == nil {
				l.Exercises = []*types.Exercise{}
			}
			for _, e := range l.Exercises {
				if e.Questions == nil {
					e.Questions = []*types.Question{}
				}
				for _, q := range e.Questions {
					if q.Options == nil {
						q.Options = []*types.Option{}
					}
				}
			}
		}
	}
}
