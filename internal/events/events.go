package events

import "time"

// Event types emitted by the course service
const (
	TypeEnrollmentCreated   = "enrollment.created"
	TypeEnrollmentCompleted = "enrollment.completed"
	TypeCoursePublished     = "course.published"
)

type EnrollmentCreatedEvent struct {
	EnrollmentID  uint      `json:"enrollment_id"`
	UserID        uint      `json:"user_id"`
	CourseID      uint      `json:"course_id"`
	PaymentStatus string    `json:"payment_status"`
	EnrolledAt    time.Time `json:"enrolled_at"`
}

type EnrollmentCompletedEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

type CoursePublishedEvent struct {
	CourseID       uint   `json:"course_id"`
	OrganizationID uint   `json:"organization_id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
}
