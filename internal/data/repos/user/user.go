package user

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

// UserRepo reads and provisions accounts. Lookups return nil, nil when the
// user does not exist.
type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	EnsureByEmail(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
	}
	if err := r.conn(ctx, tx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureByEmail inserts u unless an account with the same email exists, and
// returns whichever row is stored. An existing account keeps its role.
func (r *userRepo) EnsureByEmail(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" {
		return nil, errors.New("email is required")
	}
	err := r.conn(ctx, tx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	stored, err := r.GetByEmail(ctx, tx, u.Email)
	if err == nil && stored == nil {
		err = errors.New("user vanished after upsert")
	}
	return stored, err
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	return r.first(r.conn(ctx, tx).Where("id = ?", userID))
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	return r.first(r.conn(ctx, tx).Where("email = ?", normalizeEmail(email)))
}

func (r *userRepo) first(q *gorm.DB) (*types.User, error) {
	var u types.User
	switch err := q.Take(&u).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	out := []*types.User{}
	if len(userIDs) == 0 {
		return out, nil
	}
	err := r.conn(ctx, tx).Where("id IN ?", userIDs).Order("created_at").Find(&out).Error
	return out, err
}
