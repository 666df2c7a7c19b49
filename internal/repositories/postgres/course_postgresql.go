package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/cache"
	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// GetByID retrieves a course by ID with caching. Reads inside a transaction
// skip the cache so they see the transaction's own snapshot.
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var dbCourse models.Course
		if err := c.getDB(tx).WithContext(ctx).First(&dbCourse, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	}

	if tx != nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*models.Course), nil
	}

	var course models.Course
	err := c.cacheManager.Course.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &course, cache.CourseCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (c *CoursePostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).
			Where("slug = ?", slug).
			First(&dbCourse).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course by slug: %w", err)
		}
		return &dbCourse, nil
	}

	if tx != nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*models.Course), nil
	}

	var course models.Course
	err := c.cacheManager.Course.CacheOrExecute(ctx, fmt.Sprintf("slug:%s", slug), &course, cache.CourseCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	var current models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id, slug").First(&current, course.ID).Error; err != nil {
		return fmt.Errorf("failed to get course before update: %w", err)
	}

	err := c.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"title":             course.Title,
		"slug":              course.Slug,
		"description":       course.Description,
		"short_description": course.ShortDescription,
		"price":             course.Price,
		"thumbnail_url":     course.ThumbnailURL,
		"duration_weeks":    course.DurationWeeks,
		"language":          course.Language,
		"is_published":      course.IsPublished,
		"updated_at":        course.UpdatedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, current.Slug)
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, course.Slug)
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var course models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id, slug").First(&course, id).Error; err != nil {
		return fmt.Errorf("failed to get course before delete: %w", err)
	}

	if err := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, course.Slug)
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})

	if filters.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filters.OrganizationID)
	}
	if filters.IsPublished != nil {
		query = query.Where("is_published = ?", *filters.IsPublished)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by_user_id = ?", *filters.CreatedBy)
	}
	if filters.Language != "" {
		query = query.Where("language = ?", filters.Language)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, "created_at", courseSortColumns, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Course, error) {
	var courses []*models.Course
	err := c.getDB(tx).WithContext(ctx).
		Joins("JOIN course_instructors ON course_instructors.course_id = courses.id").
		Where("course_instructors.user_id = ?", userID).
		Order("courses.created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get courses by instructor: %w", err)
	}
	return courses, nil
}

func (c *CoursePostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (c *CoursePostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	query := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (c *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.CourseStats, error) {
	cacheKey := fmt.Sprintf("course:%d:stats", courseID)
	var stats repositories.CourseStats

	err := c.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := c.getDB(tx).WithContext(ctx)
		var fresh repositories.CourseStats

		if err := db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&fresh.EnrollmentCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}
		if err := db.Model(&models.Enrollment{}).Where("course_id = ? AND completed_at IS NOT NULL", courseID).Count(&fresh.CompletedCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count completed enrollments: %w", err)
		}
		if err := db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&fresh.LessonCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count lessons: %w", err)
		}
		return &fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (c *CoursePostgreSQL) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	var course models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id, slug").First(&course, id).Error; err != nil {
		return fmt.Errorf("failed to get course before publish change: %w", err)
	}

	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("is_published", published).Error
	if err != nil {
		return fmt.Errorf("failed to set course published state: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, course.Slug)
	return nil
}

type CourseInstructorPostgreSQL struct {
	db *gorm.DB
}

func NewCourseInstructorPostgreSQL(db *gorm.DB) repositories.CourseInstructorRepository {
	return &CourseInstructorPostgreSQL{db: db}
}

func (i *CourseInstructorPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *CourseInstructorPostgreSQL) Create(ctx context.Context, tx *gorm.DB, instructor *models.CourseInstructor) error {
	if err := i.getDB(tx).WithContext(ctx).Create(instructor).Error; err != nil {
		return fmt.Errorf("failed to create course instructor: %w", err)
	}
	return nil
}

func (i *CourseInstructorPostgreSQL) Get(ctx context.Context, tx *gorm.DB, courseID, userID uint) (*models.CourseInstructor, error) {
	var instructor models.CourseInstructor
	err := i.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&instructor).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course instructor: %w", err)
	}
	return &instructor, nil
}

func (i *CourseInstructorPostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, courseID, userID uint, role models.InstructorRole) error {
	result := i.getDB(tx).WithContext(ctx).
		Model(&models.CourseInstructor{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to update instructor role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (i *CourseInstructorPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, courseID, userID uint) error {
	result := i.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Delete(&models.CourseInstructor{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete course instructor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (i *CourseInstructorPostgreSQL) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error {
	err := i.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&models.CourseInstructor{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete course instructors: %w", err)
	}
	return nil
}

func (i *CourseInstructorPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseInstructor, error) {
	var instructors []*models.CourseInstructor
	err := i.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Preload("User").
		Order("assigned_at ASC").
		Find(&instructors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course instructors: %w", err)
	}
	return instructors, nil
}

func (i *CourseInstructorPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, courseID, userID uint) (bool, error) {
	var count int64
	err := i.getDB(tx).WithContext(ctx).
		Model(&models.CourseInstructor{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	return count > 0, err
}
