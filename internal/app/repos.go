package app

import (
	"gorm.io/gorm"

	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Repos struct {
	User    userrepo.UserRepo
	Course  courserepo.CourseRepo
	Tree    courserepo.TreeRepo
	Reviews courserepo.CourseReviewRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    userrepo.NewUserRepo(db, log),
		Course:  courserepo.NewCourseRepo(db, log),
		Tree:    courserepo.NewTreeRepo(db, log),
		Reviews: courserepo.NewCourseReviewRepo(db, log),
	}
}
