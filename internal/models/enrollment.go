package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFree     PaymentStatus = "free"
	PaymentRefunded PaymentStatus = "refunded"
)

// Enrollment links a user to a course. The composite unique index backs the
// one-enrollment-per-user-per-course rule at the store level, so concurrent
// enroll calls cannot both succeed.
type Enrollment struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	UserID             uint          `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID           uint          `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`
	EnrolledAt         time.Time     `json:"enrolled_at" gorm:"autoCreateTime"`
	CompletedAt        *time.Time    `json:"completed_at"`
	PaymentStatus      PaymentStatus `json:"payment_status" gorm:"not null;size:20;default:free"`
	ProgressPercentage float64       `json:"progress_percentage" gorm:"default:0"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type LessonProgress struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	EnrollmentID      uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	LessonID          uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	Completed         bool       `json:"completed" gorm:"default:false"`
	WatchedPercentage float64    `json:"watched_percentage" gorm:"default:0"`
	LastWatchedAt     *time.Time `json:"last_watched_at"`

	Lesson *Lesson `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
