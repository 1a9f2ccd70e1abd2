package courses

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseReview records one admin decision on a submitted course.
type CourseReview struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	AdminID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"admin_id"`
	Decision   Status         `gorm:"column:decision;type:varchar(32);not null" json:"decision"`
	Reason     string         `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Details    datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
	FromStatus Status         `gorm:"column:from_status;type:varchar(32);not null" json:"from_status"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (CourseReview) TableName() string { return "course_review" }

func (r *CourseReview) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
