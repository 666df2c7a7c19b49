package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Query     string           `json:"query"` // search on name or email
	Role      *models.UserRole `json:"role"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`    // "created_at", "email", "last_name"
	SortOrder string           `json:"sort_order"` // "asc", "desc"
}

type OrganizationFilters struct {
	IsPublic  *bool  `json:"is_public"`
	CreatedBy *uint  `json:"created_by"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"` // "created_at", "name", "slug"
	SortOrder string `json:"sort_order"`
}

type CourseFilters struct {
	OrganizationID *uint  `json:"organization_id"`
	IsPublished    *bool  `json:"is_published"`
	CreatedBy      *uint  `json:"created_by"`
	Language       string `json:"language"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
	SortBy         string `json:"sort_by"` // "created_at", "title", "price"
	SortOrder      string `json:"sort_order"`
}

type EnrollmentFilters struct {
	UserID        *uint                 `json:"user_id"`
	CourseID      *uint                 `json:"course_id"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
	Completed     *bool                 `json:"completed"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
	SortBy        string                `json:"sort_by"` // "enrolled_at", "progress_percentage"
	SortOrder     string                `json:"sort_order"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error)
}

type UserProfileRepository interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.UserProfile, error)
	Upsert(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
	Delete(ctx context.Context, tx *gorm.DB, userID uint) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, org *models.Organization) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Organization, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Organization, error)
	Update(ctx context.Context, tx *gorm.DB, org *models.Organization) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters OrganizationFilters) ([]*models.Organization, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.Organization, error)
	GetByMember(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Organization, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
}

type OrganizationMemberRepository interface {
	Create(ctx context.Context, tx *gorm.DB, member *models.OrganizationMember) error
	Get(ctx context.Context, tx *gorm.DB, orgID, userID uint) (*models.OrganizationMember, error)
	UpdateRole(ctx context.Context, tx *gorm.DB, orgID, userID uint, role models.OrgMemberRole) error
	Delete(ctx context.Context, tx *gorm.DB, orgID, userID uint) error
	DeleteByOrganization(ctx context.Context, tx *gorm.DB, orgID uint) error
	ListByOrganization(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.OrganizationMember, error)
	GetRole(ctx context.Context, tx *gorm.DB, orgID, userID uint) (models.OrgMemberRole, error)
}

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Course, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
	SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error
	GetStats(ctx context.Context, tx *gorm.DB, courseID uint) (*CourseStats, error)
}

// CourseStats aggregates counts for a course. Reads are served from the
// stats cache, so values can lag writes by up to the stats TTL.
type CourseStats struct {
	EnrollmentCount int64 `json:"enrollment_count"`
	CompletedCount  int64 `json:"completed_count"`
	LessonCount     int64 `json:"lesson_count"`
}

type CourseInstructorRepository interface {
	Create(ctx context.Context, tx *gorm.DB, instructor *models.CourseInstructor) error
	Get(ctx context.Context, tx *gorm.DB, courseID, userID uint) (*models.CourseInstructor, error)
	UpdateRole(ctx context.Context, tx *gorm.DB, courseID, userID uint, role models.InstructorRole) error
	Delete(ctx context.Context, tx *gorm.DB, courseID, userID uint) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseInstructor, error)
	Exists(ctx context.Context, tx *gorm.DB, courseID, userID uint) (bool, error)
}

type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	ExistsByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error)
	SetProgress(ctx context.Context, tx *gorm.DB, id uint, percentage float64, completedAt *time.Time) error
}

type LessonProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error
	Get(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint) (*models.LessonProgress, error)
	Update(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.LessonProgress, error)
	DeleteByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) error
	DeleteByLesson(ctx context.Context, tx *gorm.DB, lessonID uint) error
}
