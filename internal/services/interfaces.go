package services

import (
	"context"
	"time"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UserUpdateRequest = validator.UserUpdateRequest
type ProfileUpdateRequest = validator.ProfileUpdateRequest

type OrganizationCreateRequest = validator.OrganizationCreateRequest
type OrganizationUpdateRequest = validator.OrganizationUpdateRequest
type AddMemberRequest = validator.AddMemberRequest
type UpdateMemberRoleRequest = validator.UpdateMemberRoleRequest

type CourseCreateRequest = validator.CourseCreateRequest
type CourseUpdateRequest = validator.CourseUpdateRequest
type AddInstructorRequest = validator.AddInstructorRequest
type UpdateInstructorRoleRequest = validator.UpdateInstructorRoleRequest

type LessonCreateRequest = validator.LessonCreateRequest
type LessonUpdateRequest = validator.LessonUpdateRequest

type EnrollmentCreateRequest = validator.EnrollmentCreateRequest
type EnrollmentUpdateRequest = validator.EnrollmentUpdateRequest
type ProgressUpdateRequest = validator.ProgressUpdateRequest

// ===== RESPONSE DTOs =====

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type OrganizationListResponse struct {
	Organizations []*models.Organization `json:"organizations"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

type CourseStatsResponse struct {
	CourseID        uint  `json:"course_id"`
	EnrollmentCount int64 `json:"enrollment_count"`
	CompletedCount  int64 `json:"completed_count"`
	LessonCount     int64 `json:"lesson_count"`
}

type EnrollmentWithProgressResponse struct {
	Enrollment *models.Enrollment       `json:"enrollment"`
	Progress   []*models.LessonProgress `json:"progress"`
}

type EnrollmentListResponse struct {
	Enrollments []*models.Enrollment `json:"enrollments"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Size        int                  `json:"size"`
}

type LessonProgressItem struct {
	LessonID          uint                     `json:"lesson_id"`
	Title             string                   `json:"title"`
	OrderIndex        int                      `json:"order_index"`
	ContentType       models.LessonContentType `json:"content_type"`
	Completed         bool                     `json:"completed"`
	WatchedPercentage float64                  `json:"watched_percentage"`
	LastWatchedAt     *time.Time               `json:"last_watched_at,omitempty"`
}

type CourseProgressResponse struct {
	EnrollmentID      uint                 `json:"enrollment_id"`
	CourseID          uint                 `json:"course_id"`
	OverallPercentage float64              `json:"overall_percentage"`
	CompletedLessons  int                  `json:"completed_lessons"`
	TotalLessons      int                  `json:"total_lessons"`
	Lessons           []LessonProgressItem `json:"lessons"`
}

// ===== SERVICE INTERFACES =====

// UserService handles registration, authentication and profile management
type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, filters ListFilters) (*UserListResponse, error)
	Update(ctx context.Context, id uint, req *UserUpdateRequest, requesterID uint) (*models.User, error)
	Delete(ctx context.Context, id uint, requesterID uint) error

	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uint, req *ProfileUpdateRequest, requesterID uint) (*models.UserProfile, error)
}

// OrganizationService manages organizations and their membership
type OrganizationService interface {
	Create(ctx context.Context, req *OrganizationCreateRequest, creatorID uint) (*models.Organization, error)
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	List(ctx context.Context, filters ListFilters) (*OrganizationListResponse, error)
	ListMine(ctx context.Context, userID uint, createdOnly bool) ([]*models.Organization, error)
	Update(ctx context.Context, id uint, req *OrganizationUpdateRequest, requesterID uint) (*models.Organization, error)
	Delete(ctx context.Context, id uint, requesterID uint) error

	AddMember(ctx context.Context, orgID uint, req *AddMemberRequest, requesterID uint) (*models.OrganizationMember, error)
	ListMembers(ctx context.Context, orgID uint) ([]*models.OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, orgID, userID uint, req *UpdateMemberRoleRequest, requesterID uint) error
	RemoveMember(ctx context.Context, orgID, userID uint, requesterID uint) error
}

// CourseService manages courses and their instructor staff
type CourseService interface {
	Create(ctx context.Context, req *CourseCreateRequest, creatorID uint) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	List(ctx context.Context, filters CourseListFilters) (*CourseListResponse, error)
	Update(ctx context.Context, id uint, req *CourseUpdateRequest, requesterID uint) (*models.Course, error)
	Delete(ctx context.Context, id uint, requesterID uint) error
	Publish(ctx context.Context, id uint, requesterID uint) (*models.Course, error)
	Unpublish(ctx context.Context, id uint, requesterID uint) (*models.Course, error)
	GetStats(ctx context.Context, id uint) (*CourseStatsResponse, error)

	AddInstructor(ctx context.Context, courseID uint, req *AddInstructorRequest, requesterID uint) (*models.CourseInstructor, error)
	ListInstructors(ctx context.Context, courseID uint) ([]*models.CourseInstructor, error)
	UpdateInstructorRole(ctx context.Context, courseID, userID uint, req *UpdateInstructorRoleRequest, requesterID uint) error
	RemoveInstructor(ctx context.Context, courseID, userID uint, requesterID uint) error
}

// LessonService manages the lessons of a course
type LessonService interface {
	Create(ctx context.Context, courseID uint, req *LessonCreateRequest, requesterID uint) (*models.Lesson, error)
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.Lesson, error)
	Update(ctx context.Context, id uint, req *LessonUpdateRequest, requesterID uint) (*models.Lesson, error)
	Delete(ctx context.Context, id uint, requesterID uint) error
}

// EnrollmentService manages enrollments and lesson progress
type EnrollmentService interface {
	Enroll(ctx context.Context, userID uint, req *EnrollmentCreateRequest) (*models.Enrollment, error)
	GetByID(ctx context.Context, id uint, requesterID uint) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uint, filters EnrollmentListFilters) (*EnrollmentListResponse, error)
	ListByCourse(ctx context.Context, courseID uint, requesterID uint, filters EnrollmentListFilters) (*EnrollmentListResponse, error)
	GetWithProgress(ctx context.Context, userID, courseID uint) (*EnrollmentWithProgressResponse, error)
	Update(ctx context.Context, id uint, req *EnrollmentUpdateRequest, requesterID uint) (*models.Enrollment, error)
	Unenroll(ctx context.Context, id uint, requesterID uint) error

	UpdateProgress(ctx context.Context, userID uint, req *ProgressUpdateRequest) (*models.LessonProgress, error)
	GetLessonProgress(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgressResponse, error)
}

// ReportService builds exportable reports
type ReportService interface {
	CourseEnrollmentsWorkbook(ctx context.Context, courseID uint, requesterID uint) ([]byte, string, error)
}

// ===== FILTERS =====

type ListFilters struct {
	Search    string
	Page      int
	Size      int
	SortBy    string
	SortOrder string
}

type CourseListFilters struct {
	ListFilters
	OrganizationID *uint
	InstructorID   *uint
	PublishedOnly  bool
	MaxPrice       *float64
	Language       string
}

type EnrollmentListFilters struct {
	ListFilters
	Completed *bool
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	User() UserService
	Organization() OrganizationService
	Course() CourseService
	Lesson() LessonService
	Enrollment() EnrollmentService
	Report() ReportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
