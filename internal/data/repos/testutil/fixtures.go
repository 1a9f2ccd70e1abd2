package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role types.UserRole) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.com",
		FullName: "Test " + string(role),
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse inserts a bare course row owned by tutorID.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, tutorID uuid.UUID, title string, status types.CourseStatus) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:      uuid.New(),
		TutorID: tutorID,
		Title:   title,
		Status:  status,
		Version: 1,
	}
	if err := tx.WithContext(ctx).Omit("Modules").Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}
