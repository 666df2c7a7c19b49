package models

import "time"

type LessonContentType string

const (
	ContentVideo      LessonContentType = "video"
	ContentText       LessonContentType = "text"
	ContentQuiz       LessonContentType = "quiz"
	ContentAttachment LessonContentType = "attachment"
	ContentLive       LessonContentType = "live"
)

type Lesson struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	CourseID        uint              `json:"course_id" gorm:"not null;index"`
	Title           string            `json:"title" gorm:"not null;size:255"`
	OrderIndex      int               `json:"order_index" gorm:"not null"`
	ContentType     LessonContentType `json:"content_type" gorm:"not null;size:20"`
	VideoURL        *string           `json:"video_url" gorm:"size:500"`
	ContentText     *string           `json:"content_text"`
	DurationMinutes *int              `json:"duration_minutes"`
	IsFreePreview   bool              `json:"is_free_preview" gorm:"default:false"`

	// Optional per-lesson instructor, must already be on the course staff
	InstructorID *uint `json:"instructor_id" gorm:"index"`
	Instructor   *User `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}
