package courses

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Module struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID          uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title             string    `gorm:"column:title" json:"title"`
	Description       string    `gorm:"column:description;type:text" json:"description"`
	DurationInMinutes int       `gorm:"column:duration_in_minutes;not null;default:0" json:"duration_in_minutes"`
	Position          int       `gorm:"column:position;not null" json:"position"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID;references:ID" json:"lessons"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Module) TableName() string { return "course_module" }

func (m *Module) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID          uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Title             string    `gorm:"column:title" json:"title"`
	Description       string    `gorm:"column:description;type:text" json:"description"`
	Content           string    `gorm:"column:content;type:text" json:"content"`
	VideoURL          string    `gorm:"column:video_url" json:"video_url"`
	DurationInMinutes int       `gorm:"column:duration_in_minutes;not null;default:0" json:"duration_in_minutes"`
	Position          int       `gorm:"column:position;not null" json:"position"`

	Resources []*Resource `gorm:"foreignKey:LessonID;references:ID" json:"resources"`
	Exercises []*Exercise `gorm:"foreignKey:LessonID;references:ID" json:"exercises"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Resource struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Title       string       `gorm:"column:title" json:"title"`
	Description string       `gorm:"column:description;type:text" json:"description"`
	Type        ResourceType `gorm:"column:type;type:varchar(32)" json:"type"`
	URL         string       `gorm:"column:url" json:"url"`
	Position    int          `gorm:"column:position;not null" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Resource) TableName() string { return "lesson_resource" }

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Exercise struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Title       string       `gorm:"column:title" json:"title"`
	Description string       `gorm:"column:description;type:text" json:"description"`
	Type        ExerciseType `gorm:"column:type;type:varchar(32)" json:"type"`
	Position    int          `gorm:"column:position;not null" json:"position"`

	Questions []*Question `gorm:"foreignKey:ExerciseID;references:ID" json:"questions"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Exercise) TableName() string { return "exercise" }

func (e *Exercise) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExerciseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"exercise_id"`
	Content       string    `gorm:"column:content;type:text" json:"content"`
	Hint          string    `gorm:"column:hint" json:"hint"`
	CorrectAnswer string    `gorm:"column:correct_answer" json:"correct_answer"`
	Explanation   string    `gorm:"column:explanation;type:text" json:"explanation"`
	Points        int       `gorm:"column:points;not null;default:0" json:"points"`
	Position      int       `gorm:"column:position;not null" json:"position"`

	// Options are only meaningful for multiple-choice exercises.
	Options []*Option `gorm:"foreignKey:QuestionID;references:ID" json:"options"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Content    string    `gorm:"column:content" json:"content"`
	IsCorrect  bool      `gorm:"column:is_correct;not null;default:false" json:"is_correct"`
	Position   int       `gorm:"column:position;not null" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Option) TableName() string { return "question_option" }

func (o *Option) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
