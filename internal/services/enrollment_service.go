package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/events"
	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
	"github.com/openlms/course-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== ENROLLMENT =====

// Enroll creates the enrollment row. The unique (user_id, course_id) index
// backs the duplicate check, so a race between two calls surfaces as a
// duplicate key error rather than a second row.
func (s *enrollmentService) Enroll(ctx context.Context, userID uint, req *EnrollmentCreateRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	courseExists, err := s.repo.Course().ExistsByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !courseExists {
		return nil, ErrCourseNotFound
	}

	exists, err := s.repo.Enrollment().ExistsByUserAndCourse(ctx, nil, userID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		UserID:        userID,
		CourseID:      req.CourseID,
		PaymentStatus: models.PaymentFree,
	}
	if req.PaymentStatus != nil {
		enrollment.PaymentStatus = models.PaymentStatus(*req.PaymentStatus)
	}

	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	event := events.NewEvent(events.TypeEnrollmentCreated, events.EnrollmentCreatedEvent{
		EnrollmentID:  enrollment.ID,
		UserID:        enrollment.UserID,
		CourseID:      enrollment.CourseID,
		PaymentStatus: string(enrollment.PaymentStatus),
		EnrolledAt:    enrollment.EnrolledAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish enrollment.created event", "enrollment_id", enrollment.ID, "error", err)
	}

	s.logger.Info("User enrolled", "enrollment_id", enrollment.ID, "user_id", userID, "course_id", req.CourseID)
	return enrollment, nil
}

func (s *enrollmentService) GetByID(ctx context.Context, id uint, requesterID uint) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if err := s.requireEnrollmentAccess(ctx, enrollment, requesterID, "read"); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *enrollmentService) ListByUser(ctx context.Context, userID uint, filters EnrollmentListFilters) (*EnrollmentListResponse, error) {
	repoFilters := repositories.EnrollmentFilters{
		UserID:    &userID,
		Completed: filters.Completed,
		Limit:     normalizePageSize(filters.Size),
		Offset:    pageOffset(filters.Page, filters.Size),
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return &EnrollmentListResponse{
		Enrollments: enrollments,
		Total:       total,
		Page:        normalizePage(filters.Page),
		Size:        repoFilters.Limit,
	}, nil
}

// ListByCourse returns a course's roster. Course staff and admins only.
func (s *enrollmentService) ListByCourse(ctx context.Context, courseID uint, requesterID uint, filters EnrollmentListFilters) (*EnrollmentListResponse, error) {
	courseExists, err := s.repo.Course().ExistsByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !courseExists {
		return nil, ErrCourseNotFound
	}

	if err := s.requireCourseStaff(ctx, courseID, requesterID, "list_enrollments"); err != nil {
		return nil, err
	}

	repoFilters := repositories.EnrollmentFilters{
		CourseID:  &courseID,
		Completed: filters.Completed,
		Limit:     normalizePageSize(filters.Size),
		Offset:    pageOffset(filters.Page, filters.Size),
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return &EnrollmentListResponse{
		Enrollments: enrollments,
		Total:       total,
		Page:        normalizePage(filters.Page),
		Size:        repoFilters.Limit,
	}, nil
}

// GetWithProgress returns the user's enrollment in a course together with
// every per-lesson progress row recorded under it.
func (s *enrollmentService) GetWithProgress(ctx context.Context, userID, courseID uint) (*EnrollmentWithProgressResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	rows, err := s.repo.LessonProgress().ListByEnrollment(ctx, nil, enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &EnrollmentWithProgressResponse{
		Enrollment: enrollment,
		Progress:   rows,
	}, nil
}

func (s *enrollmentService) Update(ctx context.Context, id uint, req *EnrollmentUpdateRequest, requesterID uint) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	enrollment, err := s.GetByID(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != nil {
		enrollment.PaymentStatus = models.PaymentStatus(*req.PaymentStatus)
	}

	if err := s.repo.Enrollment().Update(ctx, nil, enrollment); err != nil {
		return nil, fmt.Errorf("failed to update enrollment: %w", err)
	}
	return enrollment, nil
}

// Unenroll deletes the progress rows and the enrollment together.
func (s *enrollmentService) Unenroll(ctx context.Context, id uint, requesterID uint) error {
	enrollment, err := s.GetByID(ctx, id, requesterID)
	if err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.LessonProgress().DeleteByEnrollment(ctx, nil, id); err != nil {
			return err
		}
		if err := txRepo.Enrollment().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User unenrolled", "enrollment_id", id, "user_id", enrollment.UserID, "course_id", enrollment.CourseID)
	return nil
}

// ===== PROGRESS =====

// UpdateProgress resolves lesson -> course -> caller's enrollment, then
// upserts the per-lesson row and recomputes the enrollment's overall progress.
func (s *enrollmentService) UpdateProgress(ctx context.Context, userID uint, req *ProgressUpdateRequest) (*models.LessonProgress, error) {
	if errs := s.validator.GetBusinessValidator().ValidateProgressUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, nil, req.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	now := time.Now()
	var progress *models.LessonProgress

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		existing, err := txRepo.LessonProgress().Get(ctx, nil, enrollment.ID, req.LessonID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get lesson progress: %w", err)
			}
			progress = &models.LessonProgress{
				EnrollmentID:      enrollment.ID,
				LessonID:          req.LessonID,
				Completed:         req.Completed,
				WatchedPercentage: req.WatchedPercentage,
				LastWatchedAt:     &now,
			}
			if err := txRepo.LessonProgress().Create(ctx, nil, progress); err != nil {
				// Unique (enrollment_id, lesson_id) index catches a racing insert
				if repositories.IsDuplicateError(err) {
					return ErrProgressConflict
				}
				return fmt.Errorf("failed to create lesson progress: %w", err)
			}
		} else {
			existing.Completed = req.Completed
			existing.WatchedPercentage = req.WatchedPercentage
			existing.LastWatchedAt = &now
			if err := txRepo.LessonProgress().Update(ctx, nil, existing); err != nil {
				return err
			}
			progress = existing
		}

		return s.recomputeEnrollmentProgress(ctx, txRepo, enrollment, now)
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

// GetLessonProgress returns the caller's progress row for a single lesson.
func (s *enrollmentService) GetLessonProgress(ctx context.Context, userID, lessonID uint) (*models.LessonProgress, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	progress, err := s.repo.LessonProgress().Get(ctx, nil, enrollment.ID, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return progress, nil
}

// recomputeEnrollmentProgress derives the enrollment-level percentage from the
// completed lesson count, stamping completed_at when everything is done.
func (s *enrollmentService) recomputeEnrollmentProgress(ctx context.Context, txRepo repositories.Repository, enrollment *models.Enrollment, now time.Time) error {
	total, err := txRepo.Lesson().CountByCourse(ctx, nil, enrollment.CourseID)
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}
	if total == 0 {
		return nil
	}

	rows, err := txRepo.LessonProgress().ListByEnrollment(ctx, nil, enrollment.ID)
	if err != nil {
		return err
	}

	completed := 0
	for _, row := range rows {
		if row.Completed {
			completed++
		}
	}

	percentage := float64(completed) / float64(total) * 100

	var completedAt *time.Time
	if completed == int(total) {
		if enrollment.CompletedAt != nil {
			completedAt = enrollment.CompletedAt
		} else {
			completedAt = &now
		}
	}

	justCompleted := completedAt != nil && enrollment.CompletedAt == nil

	if err := txRepo.Enrollment().SetProgress(ctx, nil, enrollment.ID, percentage, completedAt); err != nil {
		return err
	}
	enrollment.ProgressPercentage = percentage
	enrollment.CompletedAt = completedAt

	if justCompleted {
		event := events.NewEvent(events.TypeEnrollmentCompleted, events.EnrollmentCompletedEvent{
			EnrollmentID: enrollment.ID,
			UserID:       enrollment.UserID,
			CourseID:     enrollment.CourseID,
			CompletedAt:  *completedAt,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish enrollment.completed event", "enrollment_id", enrollment.ID, "error", err)
		}
		s.logger.Info("Enrollment completed", "enrollment_id", enrollment.ID, "course_id", enrollment.CourseID)
	}

	return nil
}

// GetCourseProgress returns the per-lesson breakdown for the caller's
// enrollment, left-joining progress rows onto the ordered lesson list.
func (s *enrollmentService) GetCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgressResponse, error) {
	courseExists, err := s.repo.Course().ExistsByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !courseExists {
		return nil, ErrCourseNotFound
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	lessons, err := s.repo.Lesson().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	rows, err := s.repo.LessonProgress().ListByEnrollment(ctx, nil, enrollment.ID)
	if err != nil {
		return nil, err
	}

	byLesson := make(map[uint]*models.LessonProgress, len(rows))
	for _, row := range rows {
		byLesson[row.LessonID] = row
	}

	response := &CourseProgressResponse{
		EnrollmentID: enrollment.ID,
		CourseID:     courseID,
		TotalLessons: len(lessons),
		Lessons:      make([]LessonProgressItem, 0, len(lessons)),
	}

	for _, lesson := range lessons {
		item := LessonProgressItem{
			LessonID:    lesson.ID,
			Title:       lesson.Title,
			OrderIndex:  lesson.OrderIndex,
			ContentType: lesson.ContentType,
		}
		if row, ok := byLesson[lesson.ID]; ok {
			item.Completed = row.Completed
			item.WatchedPercentage = row.WatchedPercentage
			item.LastWatchedAt = row.LastWatchedAt
			if row.Completed {
				response.CompletedLessons++
			}
		}
		response.Lessons = append(response.Lessons, item)
	}

	// A course with no lessons reports 0%, never a division by zero
	if response.TotalLessons > 0 {
		response.OverallPercentage = float64(response.CompletedLessons) / float64(response.TotalLessons) * 100
	}

	return response, nil
}

// requireCourseStaff allows course instructors and admins.
func (s *enrollmentService) requireCourseStaff(ctx context.Context, courseID, requesterID uint, action string) error {
	requester, err := s.repo.User().GetByID(ctx, nil, requesterID)
	if err == nil && requester.Role == models.RoleAdmin {
		return nil
	}

	onStaff, err := s.repo.CourseInstructor().Exists(ctx, nil, courseID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check course staff: %w", err)
	}
	if onStaff {
		return nil
	}
	return NewPermissionError(requesterID, courseID, "course", action, "not course staff")
}

// requireEnrollmentAccess allows the enrolled user, course staff and admins.
func (s *enrollmentService) requireEnrollmentAccess(ctx context.Context, enrollment *models.Enrollment, requesterID uint, action string) error {
	if enrollment.UserID == requesterID {
		return nil
	}

	requester, err := s.repo.User().GetByID(ctx, nil, requesterID)
	if err == nil && requester.Role == models.RoleAdmin {
		return nil
	}

	onStaff, err := s.repo.CourseInstructor().Exists(ctx, nil, enrollment.CourseID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check course staff: %w", err)
	}
	if onStaff {
		return nil
	}
	return NewPermissionError(requesterID, enrollment.ID, "enrollment", action, "not the enrolled user or course staff")
}
