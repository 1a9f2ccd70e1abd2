package courses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// TreeRepo writes and purges the module subtree of a course. The tree is
// always replaced wholesale, so there is no per-node update.
type TreeRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, modules []*types.Module) error
	PurgeByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	CountNodes(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (TreeCounts, error)
}

// TreeCounts is the number of persisted rows per level under one course.
type TreeCounts struct {
	Modules   int64
	Lessons   int64
	Resources int64
	Exercises int64
	Questions int64
	Options   int64
}

type treeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTreeRepo(db *gorm.DB, baseLog *logger.Logger) TreeRepo {
	repoLog := baseLog.With("repo", "TreeRepo")
	return &treeRepo{db: db, log: repoLog}
}

// Insert writes the tree level by level so each batch only references rows
// that already exist.
func (r *treeRepo) Insert(ctx context.Context, tx *gorm.DB, modules []*types.Module) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(modules) == 0 {
		return nil
	}
	// Session makes the chain reusable across the per-level Create calls.
	db := transaction.WithContext(ctx).Omit(clause.Associations).Session(&gorm.Session{})

	var (
		lessons   []*types.Lesson
		resources []*types.Resource
		exercises []*types.Exercise
		questions []*types.Question
		options   []*types.Option
	)
	for _, m := range modules {
		lessons = append(lessons, m.Lessons...)
	}
	for _, l := range lessons {
		resources = append(resources, l.Resources...)
		exercises = append(exercises, l.Exercises...)
	}
	for _, e := range exercises {
		questions = append(questions, e.Questions...)
	}
	for _, q := range questions {
		options = append(options, q.Options...)
	}

	if err := db.Create(&modules).Error; err != nil {
		return err
	}
	if len(lessons) > 0 {
		if err := db.Create(&lessons).Error; err != nil {
			return err
		}
	}
	if len(resources) > 0 {
		if err := db.Create(&resources).Error; err != nil {
			return err
		}
	}
	if len(exercises) > 0 {
		if err := db.Create(&exercises).Error; err != nil {
			return err
		}
	}
	if len(questions) > 0 {
		if err := db.Create(&questions).Error; err != nil {
			return err
		}
	}
	if len(options) > 0 {
		if err := db.Create(&options).Error; err != nil {
			return err
		}
	}
	return nil
}

// PurgeByCourseID deletes every descendant of the course, leaves first. No
// orphan rows survive a successful call.
func (r *treeRepo) PurgeByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	db := transaction.WithContext(ctx)

	modules := db.Model(&types.Module{}).Select("id").Where("course_id = ?", courseID)
	lessons := db.Model(&types.Lesson{}).Select("id").Where("module_id IN (?)", modules)
	exercises := db.Model(&types.Exercise{}).Select("id").Where("lesson_id IN (?)", lessons)
	questions := db.Model(&types.Question{}).Select("id").Where("exercise_id IN (?)", exercises)

	steps := []struct {
		model any
		where string
		arg   any
	}{
		{&types.Option{}, "question_id IN (?)", questions},
		{&types.Question{}, "exercise_id IN (?)", exercises},
		{&types.Exercise{}, "lesson_id IN (?)", lessons},
		{&types.Resource{}, "lesson_id IN (?)", lessons},
		{&types.Lesson{}, "module_id IN (?)", modules},
		{&types.Module{}, "course_id = ?", courseID},
	}
	for _, step := range steps {
		if err := db.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *treeRepo) CountNodes(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (TreeCounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	db := transaction.WithContext(ctx)
	var out TreeCounts

	modules := db.Model(&types.Module{}).Select("id").Where("course_id = ?", courseID)
	lessons := db.Model(&types.Lesson{}).Select("id").Where("module_id IN (?)", modules)
	exercises := db.Model(&types.Exercise{}).Select("id").Where("lesson_id IN (?)", lessons)
	questions := db.Model(&types.Question{}).Select("id").Where("exercise_id IN (?)", exercises)

	counts := []struct {
		model any
		where string
		arg   any
		dst   *int64
	}{
		{&types.Module{}, "course_id = ?", courseID, &out.Modules},
		{&types.Lesson{}, "module_id IN (?)", modules, &out.Lessons},
		{&types.Resource{}, "lesson_id IN (?)", lessons, &out.Resources},
		{&types.Exercise{}, "lesson_id IN (?)", lessons, &out.Exercises},
		{&types.Question{}, "exercise_id IN (?)", exercises, &out.Questions},
		{&types.Option{}, "question_id IN (?)", questions, &out.Options},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.arg).Count(c.dst).Error; err != nil {
			return TreeCounts{}, err
		}
	}
	return out, nil
}
