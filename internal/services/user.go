package services

import (
	"context"

	"github.com/google/uuid"

	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type UserService interface {
	// GetMe returns the caller attached to ctx by the auth middleware.
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users userrepo.UserRepo
}

func NewUserService(log *logger.Logger, users userrepo.UserRepo) UserService {
	return &userService{log: log.With("service", "UserService"), users: users}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "User.GetMe"
	caller := IdentityFromContext(ctx)
	if caller.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "Authentication required", nil)
	}
	user, err := s.users.GetByID(ctx, nil, caller.UserID)
	if err != nil {
		s.log.Ctx(ctx).Error("load caller failed", "user_id", caller.UserID, "error", err)
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if user == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "User not found with id: "+caller.UserID.String(), nil)
	}
	return user, nil
}
