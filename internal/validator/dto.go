package validator

import "encoding/json"

// ===== IDENTITY DTOs =====

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserUpdateRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

type ProfileUpdateRequest struct {
	ProfilePictureURL *string         `json:"profile_picture_url" validate:"omitempty,url,max=500"`
	Timezone          *string         `json:"timezone" validate:"omitempty,max=100"`
	Country           *string         `json:"country" validate:"omitempty,len=2"`
	Bio               *string         `json:"bio" validate:"omitempty,max=2000"`
	CustomData        json.RawMessage `json:"custom_data"`
}

// ===== ORGANIZATION DTOs =====

type OrganizationCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url,max=500"`
	Website      *string `json:"website" validate:"omitempty,url,max=500"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email,max=255"`
	Address      *string `json:"address" validate:"omitempty,max=1000"`
	FoundedYear  *int    `json:"founded_year" validate:"omitempty,min=1800"`
	IsPublic     *bool   `json:"is_public"`
}

type OrganizationUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url,max=500"`
	Website      *string `json:"website" validate:"omitempty,url,max=500"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email,max=255"`
	Address      *string `json:"address" validate:"omitempty,max=1000"`
	FoundedYear  *int    `json:"founded_year" validate:"omitempty,min=1800"`
	IsPublic     *bool   `json:"is_public"`
}

type AddMemberRequest struct {
	UserID uint    `json:"user_id" validate:"required"`
	Role   *string `json:"role" validate:"omitempty,oneof=owner admin instructor student"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin instructor student"`
}

// ===== COURSE DTOs =====

type CourseCreateRequest struct {
	OrganizationID   uint    `json:"organization_id" validate:"required"`
	Title            string  `json:"title" validate:"required,min=1,max=255"`
	Description      *string `json:"description" validate:"omitempty,max=10000"`
	ShortDescription *string `json:"short_description" validate:"omitempty,max=500"`
	Price            float64 `json:"price" validate:"min=0"`
	ThumbnailURL     *string `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	DurationWeeks    *int    `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	Language         *string `json:"language" validate:"omitempty,max=50"`
}

type CourseUpdateRequest struct {
	Title            *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string  `json:"description" validate:"omitempty,max=10000"`
	ShortDescription *string  `json:"short_description" validate:"omitempty,max=500"`
	Price            *float64 `json:"price" validate:"omitempty,min=0"`
	ThumbnailURL     *string  `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	DurationWeeks    *int     `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	Language         *string  `json:"language" validate:"omitempty,max=50"`
}

type AddInstructorRequest struct {
	UserID uint    `json:"user_id" validate:"required"`
	Role   *string `json:"role" validate:"omitempty,oneof=primary co_instructor ta"`
}

type UpdateInstructorRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=primary co_instructor ta"`
}

// ===== LESSON DTOs =====

type LessonCreateRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=255"`
	OrderIndex      int     `json:"order_index" validate:"min=0"`
	ContentType     string  `json:"content_type" validate:"required,oneof=video text quiz attachment live"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url,max=500"`
	ContentText     *string `json:"content_text"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	IsFreePreview   bool    `json:"is_free_preview"`
	InstructorID    *uint   `json:"instructor_id"`
}

type LessonUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	OrderIndex      *int    `json:"order_index" validate:"omitempty,min=0"`
	ContentType     *string `json:"content_type" validate:"omitempty,oneof=video text quiz attachment live"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url,max=500"`
	ContentText     *string `json:"content_text"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	IsFreePreview   *bool   `json:"is_free_preview"`
	InstructorID    *uint   `json:"instructor_id"`
}

// ===== ENROLLMENT DTOs =====

type EnrollmentCreateRequest struct {
	CourseID      uint    `json:"course_id" validate:"required"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending paid free refunded"`
}

type EnrollmentUpdateRequest struct {
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending paid free refunded"`
}

type ProgressUpdateRequest struct {
	LessonID          uint    `json:"lesson_id" validate:"required"`
	WatchedPercentage float64 `json:"watched_percentage" validate:"min=0,max=100"`
	Completed         bool    `json:"completed"`
}
