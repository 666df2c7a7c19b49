package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.getDB(tx).WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment by user and course: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	err := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).Updates(map[string]interface{}{
		"payment_status":      enrollment.PaymentStatus,
		"progress_percentage": enrollment.ProgressPercentage,
		"completed_at":        enrollment.CompletedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := e.getDB(tx).WithContext(ctx).Delete(&models.Enrollment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uint) error {
	err := e.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&models.Enrollment{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete enrollments by course: %w", err)
	}
	return nil
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{})

	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.Completed != nil {
		if *filters.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, "enrolled_at", enrollmentSortColumns, filters.Limit, filters.Offset)

	var enrollments []*models.Enrollment
	if err := query.Preload("Course").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) ExistsByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (e *EnrollmentPostgreSQL) SetProgress(ctx context.Context, tx *gorm.DB, id uint, percentage float64, completedAt *time.Time) error {
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress_percentage": percentage,
			"completed_at":        completedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set enrollment progress: %w", err)
	}
	return nil
}

type LessonProgressPostgreSQL struct {
	db *gorm.DB
}

func NewLessonProgressPostgreSQL(db *gorm.DB) repositories.LessonProgressRepository {
	return &LessonProgressPostgreSQL{db: db}
}

func (p *LessonProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *LessonProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create lesson progress: %w", err)
	}
	return nil
}

func (p *LessonProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return &progress, nil
}

func (p *LessonProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	err := p.getDB(tx).WithContext(ctx).Model(&models.LessonProgress{}).Where("id = ?", progress.ID).Updates(map[string]interface{}{
		"completed":          progress.Completed,
		"watched_percentage": progress.WatchedPercentage,
		"last_watched_at":    progress.LastWatchedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update lesson progress: %w", err)
	}
	return nil
}

func (p *LessonProgressPostgreSQL) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.LessonProgress, error) {
	var progress []*models.LessonProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	return progress, nil
}

func (p *LessonProgressPostgreSQL) DeleteByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) error {
	err := p.getDB(tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&models.LessonProgress{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete lesson progress by enrollment: %w", err)
	}
	return nil
}

func (p *LessonProgressPostgreSQL) DeleteByLesson(ctx context.Context, tx *gorm.DB, lessonID uint) error {
	err := p.getDB(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Delete(&models.LessonProgress{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete lesson progress by lesson: %w", err)
	}
	return nil
}
