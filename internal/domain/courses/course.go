package courses

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TutorID uuid.UUID `gorm:"type:uuid;not null;index" json:"tutor_id"`

	Title               string   `gorm:"column:title" json:"title"`
	Description         string   `gorm:"column:description;type:text" json:"description"`
	DurationInMinutes   int      `gorm:"column:duration_in_minutes;not null;default:0" json:"duration_in_minutes"`
	Level               Level    `gorm:"column:level;type:varchar(32)" json:"level,omitempty"`
	Price               *float64 `gorm:"column:price;type:numeric(10,2)" json:"price,omitempty"`
	CourseOverview      string   `gorm:"column:course_overview;type:text" json:"course_overview"`
	CourseContent       string   `gorm:"column:course_content;type:text" json:"course_content"`
	IncludesDescription string   `gorm:"column:includes_description;type:text" json:"includes_description"`
	ThumbnailURL        string   `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	ThumbnailKey        string   `gorm:"column:thumbnail_key" json:"-"`

	LessonCount int    `gorm:"column:lesson_count;not null;default:0" json:"lesson_count"`
	Status      Status `gorm:"column:status;type:varchar(32);not null;default:'DRAFT';index" json:"status"`
	Version     int    `gorm:"column:version;not null;default:0" json:"version"`

	Modules []*Module `gorm:"foreignKey:CourseID;references:ID" json:"modules"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
